package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/models"
)

const courseColumns = `id, creator, title, description, thumbnail, category, price,
	is_active, is_deleted, is_blacklisted, ratings_paused,
	sections_count, total_duration,
	rating_sum, rating_count, rating_average,
	enrollments_count, active_enrollments, completed_students, completion_rate,
	total_revenue, creator_revenue, platform_fees,
	created_at, updated_at, tx_hash`

func (s *session) Course(ctx context.Context, id string) (*models.Course, error) {
	var c models.Course
	found, err := s.getOne(ctx, &c,
		fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns), id)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *session) SaveCourse(ctx context.Context, c *models.Course) error {
	query := `INSERT INTO courses (id, creator, title, description, thumbnail, category, price,
			is_active, is_deleted, is_blacklisted, ratings_paused,
			sections_count, total_duration,
			rating_sum, rating_count, rating_average,
			enrollments_count, active_enrollments, completed_students, completion_rate,
			total_revenue, creator_revenue, platform_fees,
			created_at, updated_at, tx_hash)
		VALUES (:id, :creator, :title, :description, :thumbnail, :category, :price,
			:is_active, :is_deleted, :is_blacklisted, :ratings_paused,
			:sections_count, :total_duration,
			:rating_sum, :rating_count, :rating_average,
			:enrollments_count, :active_enrollments, :completed_students, :completion_rate,
			:total_revenue, :creator_revenue, :platform_fees,
			:created_at, :updated_at, :tx_hash)
		ON CONFLICT (id) DO UPDATE SET
			creator = EXCLUDED.creator, title = EXCLUDED.title,
			description = EXCLUDED.description, thumbnail = EXCLUDED.thumbnail,
			category = EXCLUDED.category, price = EXCLUDED.price,
			is_active = EXCLUDED.is_active, is_deleted = EXCLUDED.is_deleted,
			is_blacklisted = EXCLUDED.is_blacklisted, ratings_paused = EXCLUDED.ratings_paused,
			sections_count = EXCLUDED.sections_count, total_duration = EXCLUDED.total_duration,
			rating_sum = EXCLUDED.rating_sum, rating_count = EXCLUDED.rating_count,
			rating_average = EXCLUDED.rating_average,
			enrollments_count = EXCLUDED.enrollments_count,
			active_enrollments = EXCLUDED.active_enrollments,
			completed_students = EXCLUDED.completed_students,
			completion_rate = EXCLUDED.completion_rate,
			total_revenue = EXCLUDED.total_revenue,
			creator_revenue = EXCLUDED.creator_revenue,
			platform_fees = EXCLUDED.platform_fees,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, c); err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	return nil
}

func (s *session) ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, int, error) {
	conditions := []string{"is_deleted = FALSE"}
	var args []interface{}

	if f.Creator != "" {
		conditions = append(conditions, fmt.Sprintf("creator = $%d", len(args)+1))
		args = append(args, f.Creator)
	}
	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, f.Category)
	}
	if f.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *f.Active)
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at":        "created_at",
		"price":             "price",
		"rating_average":    "rating_average",
		"enrollments_count": "enrollments_count",
	}
	column, ok := allowedSorts[f.SortBy]
	if !ok {
		column = "created_at"
	}
	size, offset := pageBounds(f.Page, f.PageSize)

	query := fmt.Sprintf("SELECT %s FROM courses WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		courseColumns, where, column, normalizeSort(f.SortOrder), size, offset)
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, s.ext, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM courses WHERE %s", where)
	if err := sqlx.GetContext(ctx, s.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

const sectionColumns = `id, course_id, section_id, order_id, title, duration, is_deleted,
	started_count, completed_count, dropoff_rate, created_at, updated_at`

func (s *session) Section(ctx context.Context, id string) (*models.CourseSection, error) {
	var cs models.CourseSection
	found, err := s.getOne(ctx, &cs,
		fmt.Sprintf("SELECT %s FROM course_sections WHERE id = $1", sectionColumns), id)
	if err != nil {
		return nil, fmt.Errorf("get section: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &cs, nil
}

func (s *session) SaveSection(ctx context.Context, cs *models.CourseSection) error {
	query := `INSERT INTO course_sections (id, course_id, section_id, order_id, title, duration, is_deleted,
			started_count, completed_count, dropoff_rate, created_at, updated_at)
		VALUES (:id, :course_id, :section_id, :order_id, :title, :duration, :is_deleted,
			:started_count, :completed_count, :dropoff_rate, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			order_id = EXCLUDED.order_id, title = EXCLUDED.title,
			duration = EXCLUDED.duration, is_deleted = EXCLUDED.is_deleted,
			started_count = EXCLUDED.started_count, completed_count = EXCLUDED.completed_count,
			dropoff_rate = EXCLUDED.dropoff_rate, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, cs); err != nil {
		return fmt.Errorf("save section: %w", err)
	}
	return nil
}

func (s *session) SectionsByCourse(ctx context.Context, courseID string, includeDeleted bool) ([]models.CourseSection, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_sections
		WHERE course_id = $1 AND is_deleted = FALSE ORDER BY order_id`, sectionColumns)
	if includeDeleted {
		query = fmt.Sprintf(`SELECT %s FROM course_sections
			WHERE course_id = $1 ORDER BY is_deleted, order_id`, sectionColumns)
	}
	var sections []models.CourseSection
	if err := sqlx.SelectContext(ctx, s.ext, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("sections by course: %w", err)
	}
	return sections, nil
}

func (s *session) Rating(ctx context.Context, id string) (*models.CourseRating, error) {
	var r models.CourseRating
	found, err := s.getOne(ctx, &r,
		`SELECT id, course_id, student, rating, is_deleted, created_at, updated_at
		 FROM course_ratings WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

func (s *session) SaveRating(ctx context.Context, r *models.CourseRating) error {
	query := `INSERT INTO course_ratings (id, course_id, student, rating, is_deleted, created_at, updated_at)
		VALUES (:id, :course_id, :student, :rating, :is_deleted, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			rating = EXCLUDED.rating, is_deleted = EXCLUDED.is_deleted,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, r); err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	return nil
}
