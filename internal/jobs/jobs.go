package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/shelf-go/internal/models"
	"github.com/vrsandeep/shelf-go/internal/store"
)

const (
	PruneDanglingEntriesJob = "prune-dangling-entries"
	PurgeSessionsJob        = "purge-expired-sessions"
)

// RegisterDefaults registers the maintenance jobs.
func RegisterDefaults(jm *JobManager) {
	jm.Register(PruneDanglingEntriesJob, "Prune dangling library entries", PruneDanglingEntries)
	jm.Register(PurgeSessionsJob, "Purge expired sessions", PurgeExpiredSessions)
}

// StartJobs starts the background job scheduler. It returns nil when
// scheduling is disabled.
func StartJobs(app JobContext) *gocron.Scheduler {
	interval := app.Config().Jobs.ReconcileInterval
	if interval <= 0 {
		log.Println("Reconcile interval is 0, scheduled jobs are disabled.")
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	for _, id := range []string{PruneDanglingEntriesJob, PurgeSessionsJob} {
		scheduleJob(s, app, id, interval)
	}

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func scheduleJob(s *gocron.Scheduler, app JobContext, jobID string, interval int) {
	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobID, interval)
	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", jobID)
		// Go through the manager so scheduled and manual runs never overlap.
		if err := app.JobManager().RunJob(jobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobID, err)
	}
}

func sendProgress(ctx JobContext, jobID, message string, progress float64, done bool) {
	status := "in_progress"
	if done {
		status = "completed"
	}
	ctx.WsHub().BroadcastJSON(models.ProgressUpdate{
		JobID:    jobID,
		Message:  message,
		Progress: progress,
		Status:   status,
		Done:     done,
	})
}

// PruneDanglingEntries deletes library entries whose catalogue book was
// removed.
func PruneDanglingEntries(ctx JobContext) error {
	sendProgress(ctx, PruneDanglingEntriesJob, "Looking for dangling library entries...", 0, false)
	n, err := store.New(ctx.DB()).DeleteDanglingEntries()
	if err != nil {
		sendProgress(ctx, PruneDanglingEntriesJob, "Pruning failed.", 100, true)
		return fmt.Errorf("failed to prune library entries: %w", err)
	}
	sendProgress(ctx, PruneDanglingEntriesJob, fmt.Sprintf("Removed %d dangling library entries.", n), 100, true)
	return nil
}

// PurgeExpiredSessions deletes login sessions past their expiry.
func PurgeExpiredSessions(ctx JobContext) error {
	sendProgress(ctx, PurgeSessionsJob, "Purging expired sessions...", 0, false)
	n, err := store.New(ctx.DB()).DeleteExpiredSessions()
	if err != nil {
		sendProgress(ctx, PurgeSessionsJob, "Purge failed.", 100, true)
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	sendProgress(ctx, PurgeSessionsJob, fmt.Sprintf("Removed %d expired sessions.", n), 100, true)
	return nil
}
