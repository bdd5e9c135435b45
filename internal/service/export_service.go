package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
	"github.com/learnledger/indexer/pkg/export"
	"github.com/learnledger/indexer/pkg/jobs"
	"github.com/learnledger/indexer/pkg/storage"
	"github.com/learnledger/indexer/pkg/units"
)

// ExportKind selects what an export job renders.
type ExportKind string

const (
	// ExportActivitiesCSV dumps the filtered audit trail as CSV.
	ExportActivitiesCSV ExportKind = "activities_csv"
	// ExportTranscriptPDF renders one certificate's course history as PDF.
	ExportTranscriptPDF ExportKind = "transcript_pdf"
)

// ExportRequest parameterizes a job submission.
type ExportRequest struct {
	Kind          ExportKind            `json:"kind"`
	Activities    models.ActivityFilter `json:"-"`
	CertificateID string                `json:"certificate_id,omitempty"`
}

// ExportJob tracks one submitted export through its lifecycle.
type ExportJob struct {
	ID        string     `json:"id"`
	Kind      ExportKind `json:"kind"`
	Status    string     `json:"status"`
	Token     string     `json:"token,omitempty"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	exportStatusPending = "pending"
	exportStatusDone    = "done"
	exportStatusFailed  = "failed"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders store snapshots into downloadable files. Generation
// runs on a background queue; consumers poll the job and follow the signed
// URL once it flips to done.
type ExportService struct {
	store     store.Store
	storage   fileStorage
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       pdfRenderer
	queue     *jobs.Queue
	logger    *zap.Logger
	apiPrefix string

	mu      sync.RWMutex
	tracked map[string]*ExportJob
}

// NewExportService constructs an export service; call Start before submitting.
func NewExportService(s store.Store, files fileStorage, signer *storage.SignedURLSigner, apiPrefix string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExportService{
		store:     s,
		storage:   files,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		apiPrefix: strings.TrimRight(apiPrefix, "/"),
		tracked:   make(map[string]*ExportJob),
	}
	svc.queue = jobs.NewQueue("exports", svc.handle, jobs.QueueConfig{Workers: 2, Logger: logger})
	return svc
}

// Start launches the background workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Submit enqueues an export and returns its pending job record.
func (s *ExportService) Submit(ctx context.Context, req ExportRequest) (*ExportJob, error) {
	switch req.Kind {
	case ExportActivitiesCSV:
	case ExportTranscriptPDF:
		if req.CertificateID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "certificate_id is required")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export kind %q", req.Kind))
	}

	job := &ExportJob{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Status:    exportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(req.Kind), Payload: req}); err != nil {
		s.mu.Lock()
		delete(s.tracked, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	out := *job
	return &out, nil
}

// Job returns the tracked job by id.
func (s *ExportService) Job(id string) (*ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	out := *job
	return &out, nil
}

// Open validates a download token and opens the rendered file.
func (s *ExportService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	f, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return f, nil
}

// Cleanup removes rendered files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(ExportRequest)
	if !ok {
		s.fail(job.ID, "invalid payload")
		return nil
	}

	var (
		payload  []byte
		filename string
		err      error
	)
	switch req.Kind {
	case ExportActivitiesCSV:
		payload, err = s.renderActivities(ctx, req.Activities)
		filename = fmt.Sprintf("activities/%s.csv", job.ID)
	case ExportTranscriptPDF:
		payload, err = s.renderTranscript(ctx, req.CertificateID)
		filename = fmt.Sprintf("transcripts/%s.pdf", job.ID)
	}
	if err != nil {
		// Rendering is deterministic; retrying cannot succeed.
		s.fail(job.ID, err.Error())
		return nil
	}

	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.fail(job.ID, err.Error())
		return nil
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err.Error())
		return nil
	}

	s.mu.Lock()
	if tracked, ok := s.tracked[job.ID]; ok {
		tracked.Status = exportStatusDone
		tracked.Token = token
		tracked.URL = fmt.Sprintf("%s/exports/download/%s", s.apiPrefix, token)
		tracked.ExpiresAt = &expiresAt
	}
	s.mu.Unlock()
	return nil
}

func (s *ExportService) fail(jobID, msg string) {
	s.mu.Lock()
	if tracked, ok := s.tracked[jobID]; ok {
		tracked.Status = exportStatusFailed
		tracked.Error = msg
	}
	s.mu.Unlock()
	s.logger.Warn("export failed", zap.String("job", jobID), zap.String("error", msg))
}

func (s *ExportService) renderActivities(ctx context.Context, filter models.ActivityFilter) ([]byte, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	dataset := export.Dataset{
		Headers: []string{"Timestamp", "Contract", "Event", "Actor", "Entity", "Description", "Tx"},
	}
	for {
		activities, total, err := s.store.ListActivities(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("load activities: %w", err)
		}
		for _, a := range activities {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Timestamp":   a.Timestamp.UTC().Format(time.RFC3339),
				"Contract":    a.Contract,
				"Event":       a.Event,
				"Actor":       a.Actor,
				"Entity":      fmt.Sprintf("%s/%s", a.EntityType, a.EntityID),
				"Description": a.Description,
				"Tx":          a.TxHash,
			})
		}
		if len(dataset.Rows) >= total || len(activities) == 0 {
			break
		}
		filter.Page++
	}
	return s.csv.Render(dataset)
}

func (s *ExportService) renderTranscript(ctx context.Context, certificateID string) ([]byte, error) {
	cert, err := s.store.Certificate(ctx, certificateID)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	if cert == nil {
		return nil, fmt.Errorf("certificate %s not found", certificateID)
	}
	courses, err := s.store.CertificateCourses(ctx, certificateID)
	if err != nil {
		return nil, fmt.Errorf("load certificate courses: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Course", "Completed Via", "Price Paid", "Platform Fee", "Added"},
	}
	for _, cc := range courses {
		title := cc.CourseID
		if course, err := s.store.Course(ctx, cc.CourseID); err == nil && course != nil {
			title = course.Title
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":        title,
			"Completed Via": cc.EnrollmentID,
			"Price Paid":    units.ToDecimal(&cc.PricePaid.Int),
			"Platform Fee":  units.ToDecimal(&cc.PlatformFee.Int),
			"Added":         cc.AddedAt.UTC().Format("2006-01-02"),
		})
	}
	title := fmt.Sprintf("%s - transcript for %s", cert.Name, cert.Owner)
	return s.pdf.Render(dataset, title)
}
