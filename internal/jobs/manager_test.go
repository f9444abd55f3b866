package jobs_test

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/shelf-go/internal/config"
	"github.com/vrsandeep/shelf-go/internal/jobs"
	"github.com/vrsandeep/shelf-go/internal/websocket"
)

type fakeJobContext struct {
	db     *sql.DB
	cfg    *config.Config
	ws     *websocket.Hub
	jobMgr *jobs.JobManager
}

func (f *fakeJobContext) DB() *sql.DB                  { return f.db }
func (f *fakeJobContext) Config() *config.Config       { return f.cfg }
func (f *fakeJobContext) WsHub() *websocket.Hub        { return f.ws }
func (f *fakeJobContext) JobManager() *jobs.JobManager { return f.jobMgr }

func newFakeContext() *fakeJobContext {
	ctx := &fakeJobContext{cfg: &config.Config{}, ws: websocket.NewHub()}
	ctx.jobMgr = jobs.NewManager(ctx)
	return ctx
}

func waitForStatus(t *testing.T, mgr *jobs.JobManager, want string) jobs.JobStatus {
	t.Helper()
	var last jobs.JobStatus
	require.Eventually(t, func() bool {
		last = mgr.GetStatus()[0]
		return last.Status == want
	}, time.Second, 5*time.Millisecond)
	return last
}

func TestManager_NewManager(t *testing.T) {
	ctx := newFakeContext()
	assert.NotNil(t, ctx.jobMgr)
	assert.Empty(t, ctx.jobMgr.GetStatus())
}

func TestManager_RegisterAndGetStatus(t *testing.T) {
	mgr := newFakeContext().jobMgr
	mgr.Register("jobB", "Job B", func(ctx jobs.JobContext) error { return nil })
	mgr.Register("jobA", "Job A", func(ctx jobs.JobContext) error { return nil })

	statuses := mgr.GetStatus()
	require.Len(t, statuses, 2)
	assert.Equal(t, "jobA", statuses[0].ID)
	assert.Equal(t, "Job A", statuses[0].Name)
	assert.Equal(t, "idle", statuses[0].Status)
	assert.Equal(t, "jobB", statuses[1].ID)
}

func TestManager_RunJob_SuccessAndStatus(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	called := make(chan struct{}, 1)
	mgr.Register("jobX", "Job X", func(ctx jobs.JobContext) error {
		called <- struct{}{}
		return nil
	})

	assert.NoError(t, mgr.RunJob("jobX", ctx))
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("job was not called")
	}
	st := waitForStatus(t, mgr, "success")
	assert.False(t, st.EndTime.IsZero())
}

func TestManager_RunJob_Failure(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	mgr.Register("jobF", "Job F", func(ctx jobs.JobContext) error { return errors.New("boom") })

	err := mgr.RunJobAndWait("jobF", ctx)
	assert.EqualError(t, err, "boom")
	st := mgr.GetStatus()[0]
	assert.Equal(t, "failed", st.Status)
	assert.Equal(t, "boom", st.Message)
}

func TestManager_RunJob_AlreadyRunning(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	block := make(chan struct{})
	mgr.Register("jobY", "Job Y", func(ctx jobs.JobContext) error {
		<-block
		return nil
	})
	require.NoError(t, mgr.RunJob("jobY", ctx))
	assert.Error(t, mgr.RunJob("jobY", ctx))
	close(block)
	waitForStatus(t, mgr, "success")
}

func TestManager_RunJob_NotFound(t *testing.T) {
	ctx := newFakeContext()
	assert.Error(t, ctx.jobMgr.RunJob("nojob", ctx))
}

func TestManager_RunJob_Panic(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	mgr.Register("panicJob", "Panic Job", func(ctx jobs.JobContext) error { panic("fail") })

	err := mgr.RunJobAndWait("panicJob", ctx)
	assert.Error(t, err)
	st := mgr.GetStatus()[0]
	assert.Equal(t, "failed", st.Status)
	assert.Contains(t, st.Message, "panicked")
}

func TestManager_RunJob_UsesAppContextWhenNil(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	var got jobs.JobContext
	mgr.Register("ctxJob", "Ctx Job", func(c jobs.JobContext) error {
		got = c
		return nil
	})
	require.NoError(t, mgr.RunJobAndWait("ctxJob", nil))
	assert.Same(t, ctx, got)
}

func TestManager_Concurrency(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	release := make(chan struct{})
	var mu sync.Mutex
	var count int
	mgr.Register("jobC", "Job C", func(ctx jobs.JobContext) error {
		mu.Lock()
		count++
		mu.Unlock()
		<-release
		return nil
	})

	var wg sync.WaitGroup
	var started int
	var startedMu sync.Mutex
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if mgr.RunJob("jobC", ctx) == nil {
				startedMu.Lock()
				started++
				startedMu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(release)
	waitForStatus(t, mgr, "success")

	assert.Equal(t, 1, started, "only one run may start while another is in progress")
	mu.Lock()
	assert.Equal(t, 1, count)
	mu.Unlock()
}
