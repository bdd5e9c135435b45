package mapping

import (
	"context"
	"fmt"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/units"
)

func (e *Engine) applyLicense(ctx context.Context, s store.Store, env *events.Envelope) error {
	switch env.Name {
	case events.LicenseMinted:
		return e.licenseMinted(ctx, s, env)
	case events.LicenseRenewed:
		return e.licenseRenewed(ctx, s, env)
	case events.LicenseExpired:
		return e.licenseExpired(ctx, s, env)
	case events.RevenueRecorded:
		return e.revenueRecorded(ctx, s, env)
	default:
		return e.skipUnknown(env)
	}
}

func (e *Engine) licenseMinted(ctx context.Context, s store.Store, env *events.Envelope) error {
	if done, err := e.guarded(ctx, s, env); err != nil || done {
		return err
	}

	var p events.LicenseMintedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	if existing, err := s.Enrollment(ctx, p.TokenID); err != nil {
		return err
	} else if existing != nil {
		return nil
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	price, err := models.ParseAmount(p.Price)
	if err != nil {
		return err
	}
	// Integer floor split, bit-for-bit with the contract's own arithmetic.
	feeInt, revenueInt := units.Split(&price.Int, e.fees.LicenseBps)
	fee := models.Amount{Int: *feeInt}
	revenue := models.Amount{Int: *revenueInt}

	enrollment := store.NewEnrollment(p.TokenID, student, p.CourseID, anchor(env))
	enrollment.ValidUntil = p.ValidUntil
	enrollment.TotalSpent = price
	enrollment.PlatformFees = fee
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	if err := s.SaveStudentCourseEnrollment(ctx, &models.StudentCourseEnrollment{
		ID:           store.StudentCourseKey(student, p.CourseID),
		Student:      student,
		CourseID:     p.CourseID,
		EnrollmentID: enrollment.ID,
	}); err != nil {
		return err
	}
	if err := s.SaveCourseEnrollment(ctx, &models.CourseEnrollment{
		ID:           store.CourseEnrollmentKey(p.CourseID, enrollment.ID),
		CourseID:     p.CourseID,
		EnrollmentID: enrollment.ID,
	}); err != nil {
		return err
	}

	course.EnrollmentsCount++
	course.ActiveEnrollments++
	course.TotalRevenue = course.TotalRevenue.Add(price)
	course.CreatorRevenue = course.CreatorRevenue.Add(revenue)
	course.PlatformFees = course.PlatformFees.Add(fee)
	course.CompletionRate = completionPercent(course.CompletedStudents, course.EnrollmentsCount)
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	studentProfile, err := e.ensureProfile(ctx, s, student, env)
	if err != nil {
		return err
	}
	studentProfile.TotalSpent = studentProfile.TotalSpent.Add(price)
	studentProfile.CoursesEnrolled++
	studentProfile.ActiveEnrollments++
	studentProfile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, studentProfile); err != nil {
		return err
	}

	creatorProfile, err := e.ensureProfile(ctx, s, course.Creator, env)
	if err != nil {
		return err
	}
	creatorProfile.TotalEarned = creatorProfile.TotalEarned.Add(revenue)
	creatorProfile.PlatformFeesPaid = creatorProfile.PlatformFeesPaid.Add(fee)

	// A creator's unique-student count is a set cardinality: the relation row
	// exists exactly once per (teacher, student) pair, so the counter moves
	// only on the first purchase, never on repeats.
	tsID := store.TeacherStudentKey(course.Creator, student)
	relation, err := s.TeacherStudent(ctx, tsID)
	if err != nil {
		return err
	}
	if relation == nil {
		relation = &models.TeacherStudent{
			ID:              tsID,
			Teacher:         course.Creator,
			Student:         student,
			FirstPurchaseAt: env.Time(),
		}
		creatorProfile.UniqueStudents++
	}
	relation.CoursesPurchased++
	relation.TotalSpent = relation.TotalSpent.Add(price)
	relation.UpdatedAt = env.Time()
	if err := s.SaveTeacherStudent(ctx, relation); err != nil {
		return err
	}

	creatorProfile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, creatorProfile); err != nil {
		return err
	}

	if err := e.bumpPlatform(ctx, s, env, func(st *models.PlatformStats) {
		st.TotalEnrollments++
		st.TotalRevenue = st.TotalRevenue.Add(price)
		st.TotalPlatformFees = st.TotalPlatformFees.Add(fee)
	}); err != nil {
		return err
	}

	if err := e.markProcessed(ctx, s, env); err != nil {
		return err
	}
	return e.recordActivity(ctx, s, env, student, "Enrollment", enrollment.ID,
		fmt.Sprintf("%s enrolled in course %q", shortAddr(student), course.Title))
}

func (e *Engine) licenseRenewed(ctx context.Context, s store.Store, env *events.Envelope) error {
	if done, err := e.guarded(ctx, s, env); err != nil || done {
		return err
	}

	var p events.LicenseRenewedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	enrollment, err := s.Enrollment(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		e.skipMissing(env, "Enrollment", p.TokenID)
		return nil
	}

	course, err := s.Course(ctx, enrollment.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", enrollment.CourseID)
		return nil
	}

	price, err := models.ParseAmount(p.Price)
	if err != nil {
		return err
	}
	feeInt, revenueInt := units.Split(&price.Int, e.fees.LicenseBps)
	fee := models.Amount{Int: *feeInt}
	revenue := models.Amount{Int: *revenueInt}

	wasInactive := !enrollment.IsActive
	enrollment.IsActive = true
	enrollment.ValidUntil = p.ValidUntil
	enrollment.TotalSpent = enrollment.TotalSpent.Add(price)
	enrollment.PlatformFees = enrollment.PlatformFees.Add(fee)
	enrollment.RenewalCount++
	enrollment.UpdatedAt = env.Time()
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	course.TotalRevenue = course.TotalRevenue.Add(price)
	course.CreatorRevenue = course.CreatorRevenue.Add(revenue)
	course.PlatformFees = course.PlatformFees.Add(fee)
	if wasInactive {
		course.ActiveEnrollments++
	}
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	studentProfile, err := e.ensureProfile(ctx, s, enrollment.Student, env)
	if err != nil {
		return err
	}
	studentProfile.TotalSpent = studentProfile.TotalSpent.Add(price)
	if wasInactive {
		studentProfile.ActiveEnrollments++
	}
	studentProfile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, studentProfile); err != nil {
		return err
	}

	creatorProfile, err := e.ensureProfile(ctx, s, course.Creator, env)
	if err != nil {
		return err
	}
	creatorProfile.TotalEarned = creatorProfile.TotalEarned.Add(revenue)
	creatorProfile.PlatformFeesPaid = creatorProfile.PlatformFeesPaid.Add(fee)
	creatorProfile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, creatorProfile); err != nil {
		return err
	}

	// Renewals deepen the existing relation; the unique-student counter does
	// not move.
	relation, err := s.TeacherStudent(ctx, store.TeacherStudentKey(course.Creator, enrollment.Student))
	if err != nil {
		return err
	}
	if relation != nil {
		relation.TotalSpent = relation.TotalSpent.Add(price)
		relation.UpdatedAt = env.Time()
		if err := s.SaveTeacherStudent(ctx, relation); err != nil {
			return err
		}
	}

	if err := e.bumpPlatform(ctx, s, env, func(st *models.PlatformStats) {
		st.TotalRevenue = st.TotalRevenue.Add(price)
		st.TotalPlatformFees = st.TotalPlatformFees.Add(fee)
	}); err != nil {
		return err
	}

	if err := e.markProcessed(ctx, s, env); err != nil {
		return err
	}
	return e.recordActivity(ctx, s, env, enrollment.Student, "Enrollment", enrollment.ID,
		fmt.Sprintf("License %s renewed for course %q", enrollment.ID, course.Title))
}

func (e *Engine) licenseExpired(ctx context.Context, s store.Store, env *events.Envelope) error {
	if done, err := e.guarded(ctx, s, env); err != nil || done {
		return err
	}

	var p events.LicenseExpiredPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	enrollment, err := s.Enrollment(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		e.skipMissing(env, "Enrollment", p.TokenID)
		return nil
	}
	// Redelivered expiries must not decrement the active counters twice.
	if !enrollment.IsActive {
		return e.markProcessed(ctx, s, env)
	}

	enrollment.IsActive = false
	enrollment.UpdatedAt = env.Time()
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	course, err := s.Course(ctx, enrollment.CourseID)
	if err != nil {
		return err
	}
	if course != nil {
		if course.ActiveEnrollments > 0 {
			course.ActiveEnrollments--
		}
		course.UpdatedAt = env.Time()
		if err := s.SaveCourse(ctx, course); err != nil {
			return err
		}
	}

	profile, err := e.ensureProfile(ctx, s, enrollment.Student, env)
	if err != nil {
		return err
	}
	if profile.ActiveEnrollments > 0 {
		profile.ActiveEnrollments--
	}
	profile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, profile); err != nil {
		return err
	}

	if err := e.markProcessed(ctx, s, env); err != nil {
		return err
	}
	return e.recordActivity(ctx, s, env, enrollment.Student, "Enrollment", enrollment.ID,
		fmt.Sprintf("License %s expired", enrollment.ID))
}

// revenueRecorded is a supplementary audit event correlated with a mint or
// renewal. The split was already applied there; this handler only leaves the
// audit trail.
func (e *Engine) revenueRecorded(ctx context.Context, s store.Store, env *events.Envelope) error {
	if done, err := e.guarded(ctx, s, env); err != nil || done {
		return err
	}

	var p events.RevenueRecordedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	creator := events.NormalizeAddress(p.Creator)

	amount, err := models.ParseAmount(p.Amount)
	if err != nil {
		return err
	}

	if err := e.markProcessed(ctx, s, env); err != nil {
		return err
	}
	return e.recordActivity(ctx, s, env, creator, "Course", p.CourseID,
		fmt.Sprintf("Revenue of %s recorded for course %s (%s)", units.ToDecimal(&amount.Int), p.CourseID, p.Source))
}
