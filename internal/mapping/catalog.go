package mapping

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

func (e *Engine) applyCatalog(ctx context.Context, s store.Store, env *events.Envelope) error {
	switch env.Name {
	case events.CourseCreated:
		return e.courseCreated(ctx, s, env)
	case events.CourseUpdated:
		return e.courseUpdated(ctx, s, env)
	case events.CourseDeleted:
		return e.courseDeleted(ctx, s, env)
	case events.SectionAdded:
		return e.sectionAdded(ctx, s, env)
	case events.SectionDeleted:
		return e.sectionDeleted(ctx, s, env)
	case events.SectionMoved:
		return e.sectionMoved(ctx, s, env)
	case events.SectionsSwapped:
		return e.sectionsSwapped(ctx, s, env)
	case events.SectionsReordered:
		return e.sectionsReordered(ctx, s, env)
	case events.CourseRated:
		return e.courseRated(ctx, s, env)
	case events.RatingUpdated:
		return e.ratingUpdated(ctx, s, env)
	case events.RatingDeleted:
		return e.ratingDeleted(ctx, s, env)
	case events.CourseBlacklisted, events.CourseUnblacklisted,
		events.RatingsPaused, events.RatingsUnpaused,
		events.EmergencyDeactivated:
		return e.courseModerated(ctx, s, env)
	default:
		return e.skipUnknown(env)
	}
}

func (e *Engine) courseCreated(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CourseCreatedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	creator := events.NormalizeAddress(p.Creator)

	existing, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	category, err := events.CategoryFromIndex(p.Category, e.strictEnums)
	if err != nil {
		return err
	}
	price, err := models.ParseAmount(p.Price)
	if err != nil {
		return err
	}

	course := store.NewCourse(p.CourseID, anchor(env))
	course.Creator = creator
	course.Title = p.Title
	course.Price = price
	course.Category = category

	// The event does not carry descriptive fields; fetch them from the
	// contract and fall back to static defaults when the call fails.
	meta, err := e.reader.CourseMetadata(ctx, p.CourseID)
	if err != nil {
		if !errors.Is(err, chain.ErrCallFailed) {
			return err
		}
		e.logger.Warn("course metadata call failed, using fallbacks",
			zap.String("course", p.CourseID), zap.Error(err))
		e.obs.DependencyFallback("course_metadata")
		course.Description = chain.FallbackDescription
		course.Thumbnail = chain.FallbackThumbnail
	} else {
		course.Description = meta.Description
		course.Thumbnail = meta.Thumbnail
	}

	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	profile, err := e.ensureProfile(ctx, s, creator, env)
	if err != nil {
		return err
	}
	profile.CoursesCreated++
	profile.ActiveCourses++
	if profile.FirstCourseAt == nil {
		at := env.Time()
		profile.FirstCourseAt = &at
	}
	profile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, profile); err != nil {
		return err
	}

	if err := e.bumpPlatform(ctx, s, env, func(st *models.PlatformStats) {
		st.TotalCourses++
	}); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, creator, "Course", course.ID,
		fmt.Sprintf("Course %q created by %s", course.Title, shortAddr(creator)))
}

func (e *Engine) courseUpdated(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CourseUpdatedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
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
	course.Price = price
	course.IsActive = p.IsActive
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "Course", course.ID,
		fmt.Sprintf("Course %q updated", course.Title))
}

func (e *Engine) courseDeleted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CourseDeletedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}
	if course.IsDeleted {
		return nil
	}

	// The contract bulk-clears storage for every section; mirror that with a
	// cascade over the currently live sections.
	sections, err := s.SectionsByCourse(ctx, course.ID, false)
	if err != nil {
		return err
	}
	for i := range sections {
		sec := sections[i]
		sec.IsDeleted = true
		sec.UpdatedAt = env.Time()
		if err := s.SaveSection(ctx, &sec); err != nil {
			return err
		}
	}

	course.IsDeleted = true
	course.IsActive = false
	course.SectionsCount = 0
	course.TotalDuration = 0
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	profile, err := e.ensureProfile(ctx, s, course.Creator, env)
	if err != nil {
		return err
	}
	if profile.ActiveCourses > 0 {
		profile.ActiveCourses--
	}
	profile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, profile); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "Course", course.ID,
		fmt.Sprintf("Course %q deleted", course.Title))
}

func (e *Engine) sectionAdded(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.SectionAddedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	id := store.SectionKey(p.CourseID, p.SectionID)
	if existing, err := s.Section(ctx, id); err != nil {
		return err
	} else if existing != nil && !existing.IsDeleted {
		return nil
	}

	section := store.NewSection(p.CourseID, p.SectionID, anchor(env))
	section.Title = p.Title
	section.Duration = p.Duration
	if err := s.SaveSection(ctx, section); err != nil {
		return err
	}

	course.SectionsCount++
	course.TotalDuration += p.Duration
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	// The denominator grew: every enrollee's percentage shrinks, and someone
	// previously at 100% may no longer be complete.
	if err := e.recomputeCompletions(ctx, s, course, env); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "CourseSection", section.ID,
		fmt.Sprintf("Section %q added to course %q", section.Title, course.Title))
}

func (e *Engine) sectionDeleted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.SectionDeletedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	section, err := s.Section(ctx, store.SectionKey(p.CourseID, p.SectionID))
	if err != nil {
		return err
	}
	if section == nil {
		e.skipMissing(env, "CourseSection", store.SectionKey(p.CourseID, p.SectionID))
		return nil
	}
	if section.IsDeleted {
		return nil
	}

	removedOrder := section.OrderID
	section.IsDeleted = true
	section.UpdatedAt = env.Time()
	if err := s.SaveSection(ctx, section); err != nil {
		return err
	}

	// Close the gap: every live sibling ordered after the removed section
	// shifts down by one, restoring {0..count-1}.
	siblings, err := s.SectionsByCourse(ctx, course.ID, false)
	if err != nil {
		return err
	}
	for i := range siblings {
		sib := siblings[i]
		if sib.OrderID > removedOrder {
			sib.OrderID--
			sib.UpdatedAt = env.Time()
			if err := s.SaveSection(ctx, &sib); err != nil {
				return err
			}
		}
	}

	if course.SectionsCount > 0 {
		course.SectionsCount--
	}
	course.TotalDuration -= section.Duration
	if course.TotalDuration < 0 {
		course.TotalDuration = 0
	}
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	// The denominator shrank: completed counts are capped and a 100% state
	// may now be reachable that was not before.
	if err := e.recomputeCompletions(ctx, s, course, env); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "CourseSection", section.ID,
		fmt.Sprintf("Section %q removed from course %q", section.Title, course.Title))
}

func (e *Engine) sectionMoved(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.SectionMovedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	siblings, err := s.SectionsByCourse(ctx, course.ID, false)
	if err != nil {
		return err
	}

	moved := e.resolveMovedSection(env, &p, siblings)
	if moved == nil {
		e.skipMissing(env, "CourseSection", p.Title)
		return nil
	}

	from, to := p.FromIndex, p.ToIndex
	if from == to {
		return nil
	}

	// Splice without materializing the order as an array: siblings strictly
	// between the two positions shift toward the vacated slot.
	for i := range siblings {
		sib := &siblings[i]
		if sib.ID == moved.ID {
			continue
		}
		switch {
		case to > from && sib.OrderID > from && sib.OrderID <= to:
			sib.OrderID--
		case to < from && sib.OrderID >= to && sib.OrderID < from:
			sib.OrderID++
		default:
			continue
		}
		sib.UpdatedAt = env.Time()
		if err := s.SaveSection(ctx, sib); err != nil {
			return err
		}
	}

	moved.OrderID = to
	moved.UpdatedAt = env.Time()
	if err := s.SaveSection(ctx, moved); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "CourseSection", moved.ID,
		fmt.Sprintf("Section %q moved from position %d to %d", moved.Title, from, to))
}

// resolveMovedSection prefers the stable section id; the title scan only
// serves streams emitted before the id field existed. A duplicate title is
// genuinely ambiguous there, so the first match in order wins, with a warning.
func (e *Engine) resolveMovedSection(env *events.Envelope, p *events.SectionMovedPayload, siblings []models.CourseSection) *models.CourseSection {
	if p.SectionID != nil {
		for i := range siblings {
			if siblings[i].SectionID == *p.SectionID {
				return &siblings[i]
			}
		}
		return nil
	}

	var found *models.CourseSection
	for i := range siblings {
		if siblings[i].Title != p.Title {
			continue
		}
		if found != nil {
			e.logger.Warn("ambiguous section title in move, keeping first match",
				zap.String("course", p.CourseID), zap.String("title", p.Title),
				zap.String("tx", env.TxHash))
			break
		}
		found = &siblings[i]
	}
	return found
}

func (e *Engine) sectionsSwapped(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.SectionsSwappedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	siblings, err := s.SectionsByCourse(ctx, course.ID, false)
	if err != nil {
		return err
	}

	var secA, secB *models.CourseSection
	for i := range siblings {
		switch siblings[i].OrderID {
		case p.IndexA:
			secA = &siblings[i]
		case p.IndexB:
			secB = &siblings[i]
		}
	}
	if secA == nil || secB == nil {
		e.skipMissing(env, "CourseSection", fmt.Sprintf("%s@%d/%d", p.CourseID, p.IndexA, p.IndexB))
		return nil
	}

	secA.OrderID, secB.OrderID = secB.OrderID, secA.OrderID
	secA.UpdatedAt = env.Time()
	secB.UpdatedAt = env.Time()
	if err := s.SaveSection(ctx, secA); err != nil {
		return err
	}
	if err := s.SaveSection(ctx, secB); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "Course", course.ID,
		fmt.Sprintf("Sections at positions %d and %d swapped in course %q", p.IndexA, p.IndexB, course.Title))
}

func (e *Engine) sectionsReordered(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.SectionsReorderedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	// Position in the array is the new order, value is the section id.
	for order, sectionID := range p.SectionIDs {
		section, err := s.Section(ctx, store.SectionKey(course.ID, sectionID))
		if err != nil {
			return err
		}
		if section == nil || section.IsDeleted {
			e.skipMissing(env, "CourseSection", store.SectionKey(course.ID, sectionID))
			continue
		}
		if section.OrderID == int64(order) {
			continue
		}
		section.OrderID = int64(order)
		section.UpdatedAt = env.Time()
		if err := s.SaveSection(ctx, section); err != nil {
			return err
		}
	}

	return e.recordActivity(ctx, s, env, course.Creator, "Course", course.ID,
		fmt.Sprintf("Sections of course %q reordered", course.Title))
}

func (e *Engine) courseRated(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CourseRatedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	id := store.RatingKey(p.CourseID, student)
	rating, err := s.Rating(ctx, id)
	if err != nil {
		return err
	}
	if rating != nil && !rating.IsDeleted {
		return nil
	}

	if rating == nil {
		rating = &models.CourseRating{
			ID:        id,
			CourseID:  p.CourseID,
			Student:   student,
			CreatedAt: env.Time(),
		}
	}
	rating.Rating = p.Rating
	rating.IsDeleted = false
	rating.UpdatedAt = env.Time()
	if err := s.SaveRating(ctx, rating); err != nil {
		return err
	}

	course.RatingSum += p.Rating
	course.RatingCount++
	// The event carries the authoritative average pre-scaled by 10^4; trust
	// it rather than recomputing locally.
	course.RatingAverage = p.ScaledAverage
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "Course", course.ID,
		fmt.Sprintf("Course %q rated %d by %s", course.Title, p.Rating, shortAddr(student)))
}

func (e *Engine) ratingUpdated(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CourseRatedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	rating, err := s.Rating(ctx, store.RatingKey(p.CourseID, student))
	if err != nil {
		return err
	}
	if rating == nil || rating.IsDeleted {
		e.skipMissing(env, "CourseRating", store.RatingKey(p.CourseID, student))
		return nil
	}

	course.RatingSum += p.Rating - rating.Rating
	course.RatingAverage = p.ScaledAverage
	course.UpdatedAt = env.Time()

	rating.Rating = p.Rating
	rating.UpdatedAt = env.Time()

	if err := s.SaveRating(ctx, rating); err != nil {
		return err
	}
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "Course", course.ID,
		fmt.Sprintf("Rating on course %q changed to %d", course.Title, p.Rating))
}

func (e *Engine) ratingDeleted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.RatingDeletedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	rating, err := s.Rating(ctx, store.RatingKey(p.CourseID, student))
	if err != nil {
		return err
	}
	if rating == nil || rating.IsDeleted {
		return nil
	}

	rating.IsDeleted = true
	rating.UpdatedAt = env.Time()
	if err := s.SaveRating(ctx, rating); err != nil {
		return err
	}

	course.RatingSum -= rating.Rating
	if course.RatingSum < 0 {
		course.RatingSum = 0
	}
	if course.RatingCount > 0 {
		course.RatingCount--
	}
	// No authoritative average comes with a deletion; recompute locally.
	if course.RatingCount > 0 {
		course.RatingAverage = course.RatingSum * models.RatingScale / course.RatingCount
	} else {
		course.RatingAverage = 0
	}
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "Course", course.ID,
		fmt.Sprintf("Rating on course %q withdrawn", course.Title))
}

func (e *Engine) courseModerated(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CourseModerationPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	course, err := s.Course(ctx, p.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		e.skipMissing(env, "Course", p.CourseID)
		return nil
	}

	var desc string
	switch env.Name {
	case events.CourseBlacklisted:
		course.IsBlacklisted = true
		desc = fmt.Sprintf("Course %q blacklisted", course.Title)
	case events.CourseUnblacklisted:
		course.IsBlacklisted = false
		desc = fmt.Sprintf("Course %q removed from blacklist", course.Title)
	case events.RatingsPaused:
		course.RatingsPaused = true
		desc = fmt.Sprintf("Ratings paused on course %q", course.Title)
	case events.RatingsUnpaused:
		course.RatingsPaused = false
		desc = fmt.Sprintf("Ratings resumed on course %q", course.Title)
	case events.EmergencyDeactivated:
		course.IsActive = false
		desc = fmt.Sprintf("Course %q deactivated by emergency action", course.Title)
	}
	course.UpdatedAt = env.Time()
	if err := s.SaveCourse(ctx, course); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, course.Creator, "Course", course.ID, desc)
}
