package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/storage"
)

func newExportServiceForTest(t *testing.T, mem *store.Memory) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(mem, files, signer, "/api/v1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)
	t.Cleanup(svc.Stop)
	return svc
}

func waitForJob(t *testing.T, svc *ExportService, id string) *ExportJob {
	t.Helper()
	var job *ExportJob
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Job(id)
		if err != nil {
			return false
		}
		return job.Status != exportStatusPending
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestExportActivitiesCSVRoundTrip(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.AppendActivity(ctx, &models.Activity{
		ID:          "0xabc-0",
		Contract:    "license",
		Event:       "LicenseMinted",
		Actor:       "0xstudent",
		EntityType:  "enrollment",
		EntityID:    "1",
		Description: "license 1 minted",
		TxHash:      "0xabc",
		Timestamp:   testAnchor.At,
	}))

	svc := newExportServiceForTest(t, mem)
	job, err := svc.Submit(ctx, ExportRequest{Kind: ExportActivitiesCSV})
	require.NoError(t, err)
	require.Equal(t, exportStatusPending, job.Status)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, exportStatusDone, done.Status)
	require.NotEmpty(t, done.Token)
	require.Contains(t, done.URL, "/api/v1/exports/download/")

	f, err := svc.Open(done.Token)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(content), "LicenseMinted"))
	require.True(t, strings.Contains(string(content), "enrollment/1"))
}

func TestExportTranscriptPDFRequiresExistingCertificate(t *testing.T) {
	svc := newExportServiceForTest(t, store.NewMemory())

	_, err := svc.Submit(context.Background(), ExportRequest{Kind: ExportTranscriptPDF})
	require.Error(t, err)

	job, err := svc.Submit(context.Background(), ExportRequest{Kind: ExportTranscriptPDF, CertificateID: "404"})
	require.NoError(t, err)
	done := waitForJob(t, svc, job.ID)
	require.Equal(t, exportStatusFailed, done.Status)
	require.Contains(t, done.Error, "not found")
}

func TestExportTranscriptPDFRendersCourseHistory(t *testing.T) {
	mem := store.NewMemory()
	seedCertificate(t, mem)

	svc := newExportServiceForTest(t, mem)
	job, err := svc.Submit(context.Background(), ExportRequest{Kind: ExportTranscriptPDF, CertificateID: "7"})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, exportStatusDone, done.Status)

	f, err := svc.Open(done.Token)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(content), "%PDF"))
}

func TestExportRejectsUnknownKind(t *testing.T) {
	svc := newExportServiceForTest(t, store.NewMemory())
	_, err := svc.Submit(context.Background(), ExportRequest{Kind: "spreadsheet"})
	require.Error(t, err)
}
