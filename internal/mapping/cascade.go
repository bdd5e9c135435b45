package mapping

import (
	"context"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

// recomputeCompletions re-derives every enrollee's completion state after the
// course's section count changed. Percentages are recorded against a
// denominator; when the denominator moves, the recorded numerators are capped
// and the percentage and completion flag repaired in either direction.
//
// The walk is bounded by the course -> enrollment index and only runs on
// structural (course-authoring) events, never on the per-completion hot path.
func (e *Engine) recomputeCompletions(ctx context.Context, s store.Store, course *models.Course, env *events.Envelope) error {
	enrollments, err := s.EnrollmentsByCourse(ctx, course.ID)
	if err != nil {
		return err
	}

	newTotal := course.SectionsCount
	courseDirty := false
	for i := range enrollments {
		enr := enrollments[i]

		completed := enr.SectionsCompleted
		if completed > newTotal {
			completed = newTotal
		}
		pct := completionPercent(completed, newTotal)
		nowComplete := newTotal > 0 && completed == newTotal

		if completed == enr.SectionsCompleted && pct == enr.CompletionPercentage && nowComplete == enr.IsCompleted {
			continue
		}

		enr.SectionsCompleted = completed
		enr.CompletionPercentage = pct

		if nowComplete != enr.IsCompleted {
			if err := e.flipCompletion(ctx, s, &enr, course, nowComplete, env); err != nil {
				return err
			}
			courseDirty = true
		}

		enr.UpdatedAt = env.Time()
		if err := s.SaveEnrollment(ctx, &enr); err != nil {
			return err
		}
	}

	if courseDirty {
		course.CompletionRate = completionPercent(course.CompletedStudents, course.EnrollmentsCount)
		if err := s.SaveCourse(ctx, course); err != nil {
			return err
		}
	}
	return nil
}

// flipCompletion flips an enrollment's completed flag and keeps the dependent
// aggregates on the course and the student profile in step. Decrements clamp
// at zero.
func (e *Engine) flipCompletion(ctx context.Context, s store.Store, enr *models.Enrollment, course *models.Course, complete bool, env *events.Envelope) error {
	profile, err := e.ensureProfile(ctx, s, enr.Student, env)
	if err != nil {
		return err
	}

	if complete {
		enr.IsCompleted = true
		at := env.Time()
		enr.CompletionDate = &at
		course.CompletedStudents++
		profile.CompletedCourses++
	} else {
		enr.IsCompleted = false
		enr.CompletionDate = nil
		if course.CompletedStudents > 0 {
			course.CompletedStudents--
		}
		if profile.CompletedCourses > 0 {
			profile.CompletedCourses--
		}
	}

	profile.UpdatedAt = env.Time()
	return s.SaveProfile(ctx, profile)
}

// completionPercent is floor(part*100/total), 0 when total is 0. The floor
// matches the contracts' own integer arithmetic.
func completionPercent(part, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}
