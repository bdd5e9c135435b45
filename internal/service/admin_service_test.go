package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/mapping"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/config"
)

const replayFixture = `{"contract":"catalog","name":"CourseCreated","block_number":10,"block_time":1700000000,"tx_hash":"0xaa","log_index":0,"payload":{"course_id":"1","creator":"0xcreator","title":"Intro","price":"1000000","category":1}}
{"contract":"catalog","name":"CourseCreated","block_number":11,"block_time":1700000100,"tx_hash":"0xbb","log_index":0,"payload":{"course_id":"2","creator":"0xcreator","title":"Advanced","price":"2000000","category":1}}
`

func newAdminServiceForTest(t *testing.T, replayRoot string) (*AdminService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	fees := config.FeesConfig{LicenseBps: 200, CertificateFirstBps: 1000, CertificateNextBps: 200}
	engine := mapping.NewEngine(chain.StaticReader{}, fees, true, zap.NewNop(), nil)
	return NewAdminService(mem, engine, replayRoot, zap.NewNop()), mem
}

func TestAdminReplayAppliesEventDump(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dump.jsonl"), []byte(replayFixture), 0o644))

	svc, mem := newAdminServiceForTest(t, dir)
	result, err := svc.Replay(context.Background(), "dump.jsonl")
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Processed)

	ctx := context.Background()
	course, err := mem.Course(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, course)
	require.Equal(t, "Advanced", course.Title)

	cursor, err := mem.Cursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(11), cursor.BlockNumber)
}

func TestAdminReplayRejectsPathEscape(t *testing.T) {
	svc, _ := newAdminServiceForTest(t, t.TempDir())

	_, err := svc.Replay(context.Background(), "../outside.jsonl")
	require.Error(t, err)

	_, err = svc.Replay(context.Background(), "/etc/passwd")
	require.Error(t, err)

	_, err = svc.Replay(context.Background(), "")
	require.Error(t, err)
}

func TestAdminReplayMissingFileFails(t *testing.T) {
	svc, _ := newAdminServiceForTest(t, t.TempDir())

	_, err := svc.Replay(context.Background(), "missing.jsonl")
	require.Error(t, err)
}
