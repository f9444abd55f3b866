package importer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vrsandeep/shelf-go/internal/aggregate"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// InboxWatcher imports CSV files dropped into a directory. Each file is
// imported once its writes have settled, then moved to processed/ or,
// when it cannot be read at all, to failed/.
type InboxWatcher struct {
	dir           string
	ctx           aggregate.AppContext
	adder         Adder
	watcher       *fsnotify.Watcher
	pending       map[string]bool
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
	// onImport is called after each file is handled.
	onImport func(path string, summary *Summary, err error)
}

// NewInboxWatcher creates a watcher that imports into the library of the
// member in ctx.
func NewInboxWatcher(dir string, ctx aggregate.AppContext, adder Adder) *InboxWatcher {
	return &InboxWatcher{
		dir:           dir,
		ctx:           ctx,
		adder:         adder,
		pending:       make(map[string]bool),
		debounceDelay: 2 * time.Second, // Wait 2 seconds after the last write
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the inbox. CSV files already present are queued
// right away.
func (w *InboxWatcher) Start() error {
	if w.ctx.FamilyID == "" || !w.ctx.HasMember() {
		return fmt.Errorf("inbox import needs a family and a member")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	log.Printf("Import inbox watcher started for: %s", w.dir)
	go w.processEvents()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && isCSV(e.Name()) {
			w.queue(filepath.Join(w.dir, e.Name()))
		}
	}
	return nil
}

// Stop stops the watcher. Files already queued are not imported.
func (w *InboxWatcher) Stop() error {
	close(w.stopChan)
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *InboxWatcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Inbox watcher error: %v", err)
		case <-w.stopChan:
			return
		}
	}
}

func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !isCSV(event.Name) {
		return
	}
	if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
		return
	}
	w.queue(event.Name)
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// queue marks a file for import and restarts the debounce timer.
func (w *InboxWatcher) queue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flush)
}

func (w *InboxWatcher) flush() {
	select {
	case <-w.stopChan:
		return
	default:
	}

	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for _, p := range paths {
		w.importFile(p)
	}
}

func (w *InboxWatcher) importFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		// Already moved by an earlier flush.
		return
	}
	summary, err := Import(w.ctx, w.adder, f)
	f.Close()

	dest := processedDir
	if err != nil {
		log.Printf("Import of %s failed: %v", path, err)
		dest = failedDir
	} else {
		log.Printf("Imported %s: %d added, %d already present, %d failed",
			filepath.Base(path), summary.Imported, summary.Existing, summary.Failed)
	}
	if moveErr := moveInto(path, filepath.Join(w.dir, dest)); moveErr != nil {
		log.Printf("Could not move %s out of the inbox: %v", path, moveErr)
	}
	if w.onImport != nil {
		w.onImport(path, summary, err)
	}
}

func moveInto(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(base, ext), time.Now().UTC().Format("20060102T150405"), ext)
	return os.Rename(path, filepath.Join(dir, name))
}
