package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/learnledger/indexer/internal/models"
)

// Memory is an in-process Backend used in development, by cmd/replay and by
// the mapping tests. Handlers run one event at a time, but the query API reads
// concurrently, so access is guarded by a single RWMutex.
type Memory struct {
	mu sync.RWMutex

	courses           map[string]models.Course
	sections          map[string]models.CourseSection
	ratings           map[string]models.CourseRating
	profiles          map[string]models.UserProfile
	teacherStudents   map[string]models.TeacherStudent
	enrollments       map[string]models.Enrollment
	studentCourses    map[string]models.StudentCourseEnrollment
	courseEnrollments map[string]models.CourseEnrollment
	certificates      map[string]models.Certificate
	certCourses       map[string]models.CertificateCourse
	activities        []models.Activity
	platformStats     *models.PlatformStats
	contractStats     map[string]models.ContractStats
	cursor            *models.Cursor
	processed         map[string]models.ProcessedEvent
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		courses:           make(map[string]models.Course),
		sections:          make(map[string]models.CourseSection),
		ratings:           make(map[string]models.CourseRating),
		profiles:          make(map[string]models.UserProfile),
		teacherStudents:   make(map[string]models.TeacherStudent),
		enrollments:       make(map[string]models.Enrollment),
		studentCourses:    make(map[string]models.StudentCourseEnrollment),
		courseEnrollments: make(map[string]models.CourseEnrollment),
		certificates:      make(map[string]models.Certificate),
		certCourses:       make(map[string]models.CertificateCourse),
		contractStats:     make(map[string]models.ContractStats),
		processed:         make(map[string]models.ProcessedEvent),
	}
}

// InTx runs fn directly; single-writer discipline makes the write lock around
// each mutation sufficient for the dev/replay use cases this backend serves.
func (m *Memory) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}

// Ping implements Backend.
func (m *Memory) Ping(ctx context.Context) error { return nil }

// Close implements Backend.
func (m *Memory) Close() error { return nil }

func (m *Memory) Course(ctx context.Context, id string) (*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) SaveCourse(ctx context.Context, c *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = *c
	return nil
}

func (m *Memory) ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Course
	for _, c := range m.courses {
		if f.Creator != "" && c.Creator != f.Creator {
			continue
		}
		if f.Category != "" && string(c.Category) != f.Category {
			continue
		}
		if f.Active != nil && (c.IsActive && !c.IsDeleted) != *f.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := len(out)
	out = paginate(out, f.Page, f.PageSize)
	return out, total, nil
}

func (m *Memory) Section(ctx context.Context, id string) (*models.CourseSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sections[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) SaveSection(ctx context.Context, s *models.CourseSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[s.ID] = *s
	return nil
}

func (m *Memory) SectionsByCourse(ctx context.Context, courseID string, includeDeleted bool) ([]models.CourseSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.CourseSection
	for _, s := range m.sections {
		if s.CourseID != courseID {
			continue
		}
		if s.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDeleted != out[j].IsDeleted {
			return !out[i].IsDeleted
		}
		if out[i].OrderID == out[j].OrderID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func (m *Memory) Rating(ctx context.Context, id string) (*models.CourseRating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.ratings[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *Memory) SaveRating(ctx context.Context, r *models.CourseRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[r.ID] = *r
	return nil
}

func (m *Memory) Profile(ctx context.Context, id string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = *p
	return nil
}

func (m *Memory) TeacherStudent(ctx context.Context, id string) (*models.TeacherStudent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ts, ok := m.teacherStudents[id]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (m *Memory) SaveTeacherStudent(ctx context.Context, ts *models.TeacherStudent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teacherStudents[ts.ID] = *ts
	return nil
}

func (m *Memory) Enrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *Memory) SaveEnrollment(ctx context.Context, e *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[e.ID] = *e
	return nil
}

func (m *Memory) ListEnrollments(ctx context.Context, f models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Enrollment
	for _, e := range m.enrollments {
		if f.Student != "" && e.Student != f.Student {
			continue
		}
		if f.CourseID != "" && e.CourseID != f.CourseID {
			continue
		}
		if f.Active != nil && e.IsActive != *f.Active {
			continue
		}
		if f.Completed != nil && e.IsCompleted != *f.Completed {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	out = paginate(out, f.Page, f.PageSize)
	return out, total, nil
}

func (m *Memory) StudentCourseEnrollment(ctx context.Context, id string) (*models.StudentCourseEnrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sce, ok := m.studentCourses[id]; ok {
		return &sce, nil
	}
	return nil, nil
}

func (m *Memory) SaveStudentCourseEnrollment(ctx context.Context, sce *models.StudentCourseEnrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studentCourses[sce.ID] = *sce
	return nil
}

func (m *Memory) SaveCourseEnrollment(ctx context.Context, ce *models.CourseEnrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courseEnrollments[ce.ID] = *ce
	return nil
}

func (m *Memory) EnrollmentsByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Enrollment
	for _, ce := range m.courseEnrollments {
		if ce.CourseID != courseID {
			continue
		}
		if e, ok := m.enrollments[ce.EnrollmentID]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Certificate(ctx context.Context, id string) (*models.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.certificates[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) SaveCertificate(ctx context.Context, c *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[c.ID] = *c
	return nil
}

func (m *Memory) CertificateByOwner(ctx context.Context, owner string) (*models.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.certificates {
		if c.Owner == owner {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) CertificateCourse(ctx context.Context, id string) (*models.CertificateCourse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cc, ok := m.certCourses[id]; ok {
		return &cc, nil
	}
	return nil, nil
}

func (m *Memory) SaveCertificateCourse(ctx context.Context, cc *models.CertificateCourse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certCourses[cc.ID] = *cc
	return nil
}

func (m *Memory) CertificateCourses(ctx context.Context, certificateID string) ([]models.CertificateCourse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.CertificateCourse
	for _, cc := range m.certCourses {
		if cc.CertificateID == certificateID {
			out = append(out, cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (m *Memory) AppendActivity(ctx context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// One record per event id; a redelivered event must not duplicate its row.
	for _, existing := range m.activities {
		if existing.ID == a.ID {
			return nil
		}
	}
	m.activities = append(m.activities, *a)
	return nil
}

func (m *Memory) ListActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Activity
	for i := len(m.activities) - 1; i >= 0; i-- {
		a := m.activities[i]
		if f.Actor != "" && a.Actor != f.Actor {
			continue
		}
		if f.Contract != "" && a.Contract != f.Contract {
			continue
		}
		if f.EntityType != "" && a.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && a.EntityID != f.EntityID {
			continue
		}
		out = append(out, a)
	}
	total := len(out)
	out = paginate(out, f.Page, f.PageSize)
	return out, total, nil
}

func (m *Memory) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.platformStats == nil {
		return nil, nil
	}
	out := *m.platformStats
	return &out, nil
}

func (m *Memory) SavePlatformStats(ctx context.Context, s *models.PlatformStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *s
	m.platformStats = &out
	return nil
}

func (m *Memory) ContractStats(ctx context.Context, id string) (*models.ContractStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.contractStats[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) SaveContractStats(ctx context.Context, s *models.ContractStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contractStats[s.ID] = *s
	return nil
}

func (m *Memory) Cursor(ctx context.Context) (*models.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cursor == nil {
		return nil, nil
	}
	out := *m.cursor
	return &out, nil
}

func (m *Memory) SaveCursor(ctx context.Context, c *models.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *c
	m.cursor = &out
	return nil
}

func (m *Memory) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.processed[eventID]
	return ok, nil
}

func (m *Memory) MarkProcessed(ctx context.Context, mark *models.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[mark.ID] = *mark
	return nil
}

func paginate[T any](in []T, page, size int) []T {
	if size <= 0 {
		return in
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(in) {
		return nil
	}
	end := start + size
	if end > len(in) {
		end = len(in)
	}
	return in[start:end]
}
