package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/learnledger/indexer/pkg/errors"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

func seedCertificate(t *testing.T, mem *store.Memory) {
	t.Helper()
	ctx := context.Background()

	cert := store.NewCertificate("7", "0xOWNER", testAnchor)
	cert.Owner = "0xowner"
	cert.Name = "Web3 Path"
	cert.TotalCourses = 2
	require.NoError(t, mem.SaveCertificate(ctx, cert))

	for _, courseID := range []string{"1", "2"} {
		require.NoError(t, mem.SaveCertificateCourse(ctx, &models.CertificateCourse{
			ID:            store.CertificateCourseKey("7", courseID),
			CertificateID: "7",
			CourseID:      courseID,
			EnrollmentID:  "e-" + courseID,
			PricePaid:     models.NewAmount(1000),
			PlatformFee:   models.NewAmount(100),
			AddedAt:       testAnchor.At,
		}))
	}
}

func TestCertificateServiceGetIncludesCourseHistory(t *testing.T) {
	mem := store.NewMemory()
	seedCertificate(t, mem)

	svc := NewCertificateService(mem, nil)
	detail, err := svc.Get(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, "Web3 Path", detail.Name)
	require.Len(t, detail.Courses, 2)
}

func TestCertificateServiceByOwnerNormalizesAddress(t *testing.T) {
	mem := store.NewMemory()
	seedCertificate(t, mem)

	svc := NewCertificateService(mem, nil)
	detail, err := svc.ByOwner(context.Background(), "0xOWNER")
	require.NoError(t, err)
	require.Equal(t, "7", detail.ID)
}

func TestCertificateServiceMissingIsNotFound(t *testing.T) {
	svc := NewCertificateService(store.NewMemory(), nil)

	_, err := svc.Get(context.Background(), "404")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	_, err = svc.ByOwner(context.Background(), "0xnobody")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCertificateServiceCoursesRequiresCertificate(t *testing.T) {
	mem := store.NewMemory()
	seedCertificate(t, mem)

	svc := NewCertificateService(mem, nil)
	courses, err := svc.Courses(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, courses, 2)

	_, err = svc.Courses(context.Background(), "404")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
