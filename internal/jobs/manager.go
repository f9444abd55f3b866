package jobs

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/vrsandeep/shelf-go/internal/config"
	"github.com/vrsandeep/shelf-go/internal/websocket"
)

// JobContext is an interface that provides the necessary dependencies for a job to run.
// The core.App struct implements this interface.
type JobContext interface {
	DB() *sql.DB
	Config() *config.Config
	WsHub() *websocket.Hub
	JobManager() *JobManager
}

// JobTask is the body of a job. A returned error marks the run as failed.
type JobTask func(ctx JobContext) error

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// JobManager runs registered jobs one at a time and tracks their status.
type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]JobTask
	status  map[string]*JobStatus
	running bool
	appCtx  JobContext // used by scheduled runs
}

func NewManager(appCtx JobContext) *JobManager {
	return &JobManager{
		jobs:   make(map[string]JobTask),
		status: make(map[string]*JobStatus),
		appCtx: appCtx,
	}
}

func (jm *JobManager) Register(id, name string, task JobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[id] = task
	jm.status[id] = &JobStatus{ID: id, Name: name, Status: "idle"}
}

// RunJob starts a job in the background. It fails if the job is unknown
// or if any job is already running.
func (jm *JobManager) RunJob(id string, ctx JobContext) error {
	_, err := jm.start(id, ctx)
	return err
}

// RunJobAndWait runs a job and blocks until it finishes, returning the
// job's own error.
func (jm *JobManager) RunJobAndWait(id string, ctx JobContext) error {
	done, err := jm.start(id, ctx)
	if err != nil {
		return err
	}
	return <-done
}

func (jm *JobManager) start(id string, ctx JobContext) (<-chan error, error) {
	if ctx == nil {
		ctx = jm.appCtx
	}

	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return nil, fmt.Errorf("a job is already running")
	}
	task, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return nil, fmt.Errorf("job '%s' not found", id)
	}

	jm.running = true
	status := jm.status[id]
	status.Status = "running"
	status.StartTime = time.Now()
	status.EndTime = time.Time{}
	status.Message = "Job started..."
	jm.mu.Unlock()

	done := make(chan error, 1)
	log.Printf("Starting job: %s", id)
	go func() {
		var runErr error
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Job '%s' panicked: %v", id, r)
				runErr = fmt.Errorf("job panicked: %v", r)
			}

			jm.mu.Lock()
			status.EndTime = time.Now()
			if runErr != nil {
				status.Status = "failed"
				status.Message = runErr.Error()
			} else {
				status.Status = "success"
				status.Message = "Job completed successfully."
			}
			jm.running = false
			jm.mu.Unlock()
			log.Printf("Finished job: %s (%s)", id, status.Status)
			done <- runErr
		}()

		runErr = task(ctx)
	}()
	return done, nil
}

// GetStatus returns a snapshot of every job's status, ordered by id.
func (jm *JobManager) GetStatus() []JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]JobStatus, 0, len(jm.status))
	for _, s := range jm.status {
		statuses = append(statuses, *s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}
