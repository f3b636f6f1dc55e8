package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/config"
	"github.com/smysle/dramabox-web/internal/metrics"
	"github.com/smysle/dramabox-web/internal/watching"
)

type fakeProber struct{ err error }

func (p fakeProber) ForYou(context.Context) ([]catalog.Drama, error) { return nil, p.err }

// fakePruner 记录清理时间点
type fakePruner struct {
	*watching.MemoryBackend
	before  time.Time
	deleted int64
	err     error
}

func (p *fakePruner) Prune(_ context.Context, before time.Time) (int64, error) {
	p.before = before
	return p.deleted, p.err
}

func testConfig() *config.Config {
	return &config.Config{
		Timezone: "Asia/Jakarta",
		Storage:  config.StorageConfig{Driver: "mysql", RetentionDays: 90},
		Scheduler: config.SchedulerConfig{
			PruneWatchState: true,
			ProbeUpstream:   true,
			ProbeInterval:   5,
		},
	}
}

func TestProbeUpstream(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want float64
	}{
		{"上游正常", nil, 1},
		{"上游失败", errors.New("foryou fetch failed: 503"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testConfig(), nil, fakeProber{err: tt.err})
			require.NoError(t, s.RunNow(TaskProbe))
			assert.Equal(t, tt.want, testutil.ToFloat64(metrics.UpstreamUp))
		})
	}
}

func TestPruneWatchState(t *testing.T) {
	pruner := &fakePruner{MemoryBackend: watching.NewMemoryBackend(), deleted: 3}
	s := New(testConfig(), pruner, nil)
	now := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	before := testutil.ToFloat64(metrics.WatchStatePrunedTotal)
	require.NoError(t, s.RunNow(TaskPrune))

	assert.Equal(t, now.AddDate(0, 0, -90), pruner.before)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.WatchStatePrunedTotal))
}

func TestPruneWatchState_Error(t *testing.T) {
	pruner := &fakePruner{MemoryBackend: watching.NewMemoryBackend(), deleted: 7, err: errors.New("db down")}
	s := New(testConfig(), pruner, nil)

	before := testutil.ToFloat64(metrics.WatchStatePrunedTotal)
	require.NoError(t, s.RunNow(TaskPrune))
	assert.Equal(t, before, testutil.ToFloat64(metrics.WatchStatePrunedTotal))
}

func TestPruneWatchState_BackendWithoutPrune(t *testing.T) {
	// 内存存储不支持清理，不应该 panic
	s := New(testConfig(), watching.NewMemoryBackend(), nil)
	assert.NoError(t, s.RunNow(TaskPrune))
}

func TestRunNow_Unknown(t *testing.T) {
	s := New(testConfig(), nil, nil)
	assert.Error(t, s.RunNow("dayrank"))
	assert.Error(t, s.RunNow(TaskProbe), "没有 prober")
}

func TestRegisterJobs(t *testing.T) {
	tests := []struct {
		name    string
		backend watching.Backend
		prober  Prober
		want    int
	}{
		{"清理和探测", &fakePruner{MemoryBackend: watching.NewMemoryBackend()}, fakeProber{}, 2},
		{"存储不支持清理", watching.NewMemoryBackend(), fakeProber{}, 1},
		{"都没有", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testConfig(), tt.backend, tt.prober)
			s.registerJobs()
			assert.Len(t, s.cron.Jobs(), tt.want)
		})
	}
}
