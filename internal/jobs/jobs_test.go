package jobs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/shelf-go/internal/jobs"
	"github.com/vrsandeep/shelf-go/internal/models"
	"github.com/vrsandeep/shelf-go/internal/testutil"
)

func newDBContext(t *testing.T) *fakeJobContext {
	t.Helper()
	ctx := newFakeContext()
	ctx.db = testutil.SetupTestDB(t)
	go ctx.ws.Run()
	jobs.RegisterDefaults(ctx.jobMgr)
	return ctx
}

// listen connects a websocket client to the hub and returns the progress
// updates it receives.
func listen(t *testing.T, ctx *fakeJobContext) <-chan models.ProgressUpdate {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx.ws.ServeWs(w, r, "")
	}))
	t.Cleanup(srv.Close)

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return ctx.ws.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	updates := make(chan models.ProgressUpdate, 16)
	go func() {
		defer close(updates)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var u models.ProgressUpdate
			if json.Unmarshal(data, &u) == nil && u.JobID != "" {
				updates <- u
			}
		}
	}()
	return updates
}

func TestPruneDanglingEntries(t *testing.T) {
	ctx := newDBContext(t)
	familyID, memberID := testutil.SeedFamily(t, ctx.db, "Smith", "Ana")
	now := time.Now().UTC()
	ctx.db.Exec("INSERT INTO books (id, family_id, title, author, created_at) VALUES ('b1', ?, 'Kept', 'A', ?)", familyID, now)
	ctx.db.Exec("INSERT INTO library_entries (id, family_id, member_id, book_id, added_at) VALUES ('e1', ?, ?, 'b1', ?)", familyID, memberID, now)
	ctx.db.Exec("INSERT INTO library_entries (id, family_id, member_id, book_id, added_at) VALUES ('e2', ?, ?, 'gone', ?)", familyID, memberID, now)

	updates := listen(t, ctx)
	require.NoError(t, ctx.jobMgr.RunJobAndWait(jobs.PruneDanglingEntriesJob, ctx))

	var final models.ProgressUpdate
	timeout := time.After(2 * time.Second)
	for !final.Done {
		select {
		case u, ok := <-updates:
			require.True(t, ok, "connection closed before the final update")
			final = u
		case <-timeout:
			t.Fatal("did not receive the final progress update")
		}
	}
	assert.Equal(t, jobs.PruneDanglingEntriesJob, final.JobID)
	assert.Contains(t, final.Message, "Removed 1")

	var count int
	ctx.db.QueryRow("SELECT COUNT(*) FROM library_entries").Scan(&count)
	assert.Equal(t, 1, count)
}

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := newDBContext(t)
	familyID, _ := testutil.SeedFamily(t, ctx.db, "Smith", "Ana")
	now := time.Now().UTC()
	_, err := ctx.db.Exec("INSERT INTO users (id, username, password_hash, role, family_id, created_at) VALUES (1, 'u', 'x', 'user', ?, ?)", familyID, now)
	require.NoError(t, err)
	ctx.db.Exec("INSERT INTO sessions (token, user_id, expiry) VALUES ('old', 1, ?)", now.Add(-time.Hour))
	ctx.db.Exec("INSERT INTO sessions (token, user_id, expiry) VALUES ('new', 1, ?)", now.Add(time.Hour))

	require.NoError(t, ctx.jobMgr.RunJobAndWait(jobs.PurgeSessionsJob, ctx))

	var token string
	require.NoError(t, ctx.db.QueryRow("SELECT token FROM sessions").Scan(&token))
	assert.Equal(t, "new", token)
}

func TestStartJobs_Disabled(t *testing.T) {
	ctx := newFakeContext()
	assert.Nil(t, jobs.StartJobs(ctx))
}

func TestStartJobs_Schedules(t *testing.T) {
	ctx := newFakeContext()
	ctx.cfg.Jobs.ReconcileInterval = 30
	s := jobs.StartJobs(ctx)
	require.NotNil(t, s)
	defer s.Stop()
	assert.Len(t, s.Jobs(), 2)
}
