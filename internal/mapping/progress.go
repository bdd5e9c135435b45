package mapping

import (
	"context"
	"fmt"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

func (e *Engine) applyProgress(ctx context.Context, s store.Store, env *events.Envelope) error {
	switch env.Name {
	case events.SectionStarted:
		return e.sectionStarted(ctx, s, env)
	case events.SectionCompleted:
		return e.sectionCompleted(ctx, s, env)
	case events.CourseCompleted:
		return e.courseCompleted(ctx, s, env)
	case events.ProgressReset:
		return e.progressReset(ctx, s, env)
	default:
		return e.skipUnknown(env)
	}
}

// loadProgressTargets resolves the enrollment and course a progress event
// refers to; either may be missing when the streams race each other.
func (e *Engine) loadProgressTargets(ctx context.Context, s store.Store, env *events.Envelope, student, courseID string) (*models.Enrollment, *models.Course, error) {
	lookup, err := s.StudentCourseEnrollment(ctx, store.StudentCourseKey(student, courseID))
	if err != nil {
		return nil, nil, err
	}
	if lookup == nil {
		e.skipMissing(env, "Enrollment", store.StudentCourseKey(student, courseID))
		return nil, nil, nil
	}
	enrollment, err := s.Enrollment(ctx, lookup.EnrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if enrollment == nil {
		e.skipMissing(env, "Enrollment", lookup.EnrollmentID)
		return nil, nil, nil
	}
	course, err := s.Course(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	if course == nil {
		e.skipMissing(env, "Course", courseID)
		return nil, nil, nil
	}
	return enrollment, course, nil
}

func (e *Engine) sectionStarted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.ProgressPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	section, err := s.Section(ctx, store.SectionKey(p.CourseID, p.SectionID))
	if err != nil {
		return err
	}
	if section == nil {
		e.skipMissing(env, "CourseSection", store.SectionKey(p.CourseID, p.SectionID))
		return nil
	}

	section.StartedCount++
	section.DropoffRate = dropoffRate(section.StartedCount, section.CompletedCount)
	section.UpdatedAt = env.Time()
	if err := s.SaveSection(ctx, section); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "CourseSection", section.ID,
		fmt.Sprintf("%s started section %q", shortAddr(student), section.Title))
}

func (e *Engine) sectionCompleted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.ProgressPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	enrollment, course, err := e.loadProgressTargets(ctx, s, env, student, p.CourseID)
	if err != nil || enrollment == nil {
		return err
	}

	section, err := s.Section(ctx, store.SectionKey(p.CourseID, p.SectionID))
	if err != nil {
		return err
	}
	if section == nil {
		e.skipMissing(env, "CourseSection", store.SectionKey(p.CourseID, p.SectionID))
		return nil
	}

	section.CompletedCount++
	section.DropoffRate = dropoffRate(section.StartedCount, section.CompletedCount)
	section.UpdatedAt = env.Time()
	if err := s.SaveSection(ctx, section); err != nil {
		return err
	}

	// The percentage is always computed against the course's current section
	// count, read fresh; a cached total would go stale under section edits.
	total := course.SectionsCount
	if enrollment.SectionsCompleted < total {
		enrollment.SectionsCompleted++
	}
	enrollment.CompletionPercentage = completionPercent(enrollment.SectionsCompleted, total)

	if total > 0 && enrollment.SectionsCompleted == total && !enrollment.IsCompleted {
		if err := e.flipCompletion(ctx, s, enrollment, course, true, env); err != nil {
			return err
		}
		course.CompletionRate = completionPercent(course.CompletedStudents, course.EnrollmentsCount)
		course.UpdatedAt = env.Time()
		if err := s.SaveCourse(ctx, course); err != nil {
			return err
		}
	}

	enrollment.UpdatedAt = env.Time()
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "CourseSection", section.ID,
		fmt.Sprintf("%s completed section %q", shortAddr(student), section.Title))
}

func (e *Engine) courseCompleted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.ProgressPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	enrollment, course, err := e.loadProgressTargets(ctx, s, env, student, p.CourseID)
	if err != nil || enrollment == nil {
		return err
	}

	// Idempotent snapshot to the fully-complete state.
	enrollment.SectionsCompleted = course.SectionsCount
	enrollment.CompletionPercentage = 100
	if !enrollment.IsCompleted {
		if err := e.flipCompletion(ctx, s, enrollment, course, true, env); err != nil {
			return err
		}
		course.CompletionRate = completionPercent(course.CompletedStudents, course.EnrollmentsCount)
		course.UpdatedAt = env.Time()
		if err := s.SaveCourse(ctx, course); err != nil {
			return err
		}
	}

	enrollment.UpdatedAt = env.Time()
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "Enrollment", enrollment.ID,
		fmt.Sprintf("%s completed course %q", shortAddr(student), course.Title))
}

func (e *Engine) progressReset(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.ProgressPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	enrollment, course, err := e.loadProgressTargets(ctx, s, env, student, p.CourseID)
	if err != nil || enrollment == nil {
		return err
	}

	// Exact inverse of course completion. Re-entrant admin resets must not
	// push any counter below zero, so the flip only runs when there is
	// something to undo.
	if enrollment.IsCompleted {
		if err := e.flipCompletion(ctx, s, enrollment, course, false, env); err != nil {
			return err
		}
		course.CompletionRate = completionPercent(course.CompletedStudents, course.EnrollmentsCount)
		course.UpdatedAt = env.Time()
		if err := s.SaveCourse(ctx, course); err != nil {
			return err
		}
	}

	enrollment.SectionsCompleted = 0
	enrollment.CompletionPercentage = 0
	enrollment.UpdatedAt = env.Time()
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, student, "Enrollment", enrollment.ID,
		fmt.Sprintf("Progress reset for %s on course %q", shortAddr(student), course.Title))
}

// dropoffRate is (started-completed)/started, 0 when nothing started yet.
func dropoffRate(started, completed int64) float64 {
	if started <= 0 {
		return 0
	}
	diff := started - completed
	if diff < 0 {
		diff = 0
	}
	return float64(diff) / float64(started)
}
