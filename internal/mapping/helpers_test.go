package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/config"
)

var testFees = config.FeesConfig{
	LicenseBps:          200,
	CertificateFirstBps: 1000,
	CertificateNextBps:  200,
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	return NewEngine(chain.StaticReader{}, testFees, true, zap.NewNop(), nil), store.NewMemory()
}

var seq uint64

// evt builds an envelope with a unique (block, log) position and tx hash.
func evt(contract events.Contract, name string, payload interface{}) *events.Envelope {
	seq++
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &events.Envelope{
		Contract:    contract,
		Name:        name,
		BlockNumber: seq,
		BlockTime:   1700000000 + int64(seq),
		TxHash:      fmt.Sprintf("0xtx%06d", seq),
		LogIndex:    0,
		Payload:     raw,
	}
}

func apply(t *testing.T, e *Engine, s store.Store, env *events.Envelope) {
	t.Helper()
	require.NoError(t, e.Apply(context.Background(), s, env))
}

// seedCourse creates a course with the given section durations.
func seedCourse(t *testing.T, e *Engine, s store.Store, courseID, creator string, durations ...int64) {
	t.Helper()
	apply(t, e, s, evt(events.ContractCatalog, events.CourseCreated, events.CourseCreatedPayload{
		CourseID: courseID,
		Creator:  creator,
		Title:    "Course " + courseID,
		Price:    "1000000",
		Category: 0,
	}))
	for i, d := range durations {
		apply(t, e, s, evt(events.ContractCatalog, events.SectionAdded, events.SectionAddedPayload{
			CourseID:  courseID,
			SectionID: int64(i),
			Title:     fmt.Sprintf("Section %d", i),
			Duration:  d,
		}))
	}
}

// seedEnrollment mints a license for student on course.
func seedEnrollment(t *testing.T, e *Engine, s store.Store, tokenID, courseID, student, price string) {
	t.Helper()
	apply(t, e, s, evt(events.ContractLicense, events.LicenseMinted, events.LicenseMintedPayload{
		TokenID:    tokenID,
		CourseID:   courseID,
		Student:    student,
		Price:      price,
		ValidUntil: 1900000000,
	}))
}

// liveOrders returns the orderId set of the course's non-deleted sections.
func liveOrders(t *testing.T, s store.Store, courseID string) []int64 {
	t.Helper()
	sections, err := s.SectionsByCourse(context.Background(), courseID, false)
	require.NoError(t, err)
	out := make([]int64, 0, len(sections))
	for _, sec := range sections {
		out = append(out, sec.OrderID)
	}
	return out
}

// requireDense asserts the dense orderId invariant {0..count-1}.
func requireDense(t *testing.T, s store.Store, courseID string) {
	t.Helper()
	orders := liveOrders(t, s, courseID)
	seen := make(map[int64]bool, len(orders))
	for _, o := range orders {
		require.False(t, seen[o], "duplicate orderId %d", o)
		require.GreaterOrEqual(t, o, int64(0))
		require.Less(t, o, int64(len(orders)), "orderId %d out of range", o)
		seen[o] = true
	}

	course, err := s.Course(context.Background(), courseID)
	require.NoError(t, err)
	require.NotNil(t, course)
	require.Equal(t, int64(len(orders)), course.SectionsCount)
}

func listAll() models.ActivityFilter {
	return models.ActivityFilter{Page: 1, PageSize: 100}
}
