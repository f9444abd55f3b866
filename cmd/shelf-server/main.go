package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/api"
	"github.com/vrsandeep/shelf-go/internal/auth"
	"github.com/vrsandeep/shelf-go/internal/core"
	"github.com/vrsandeep/shelf-go/internal/importer"
	"github.com/vrsandeep/shelf-go/internal/jobs"
	"github.com/vrsandeep/shelf-go/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app, err := core.New(os.Getenv("SHELF_CONFIG_FILE"), version)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// --- First User Provisioning ---
	if err := provisionFirstUser(store.New(app.DB())); err != nil {
		log.Fatalf("Could not provision the first account: %v", err)
	}

	go app.WsHub().Run()

	if scheduler := jobs.StartJobs(app); scheduler != nil {
		defer scheduler.Stop()
	}

	server := api.NewServer(app)

	if inbox := app.Config().Import; inbox.InboxPath != "" {
		if member, err := server.Store().GetMember(inbox.FamilyID, inbox.MemberID); err != nil || member == nil {
			log.Printf("Warning: import inbox disabled: member %q not found in family %q", inbox.MemberID, inbox.FamilyID)
		} else {
			ctx := aggregate.AppContext{FamilyID: inbox.FamilyID, MemberID: &member.ID}
			watcher := importer.NewInboxWatcher(inbox.InboxPath, ctx, server.Library())
			if err := watcher.Start(); err != nil {
				log.Printf("Warning: import inbox disabled: %v", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// provisionFirstUser creates a "Home" family with one member and an admin
// account when the database holds no accounts yet. The generated password
// is printed once.
func provisionFirstUser(st *store.Store) error {
	userCount, err := st.CountUsers()
	if err != nil {
		return fmt.Errorf("could not check user count: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	log.Println("No users found. Creating default family and admin account.")
	family, err := st.CreateFamily("Home")
	if err != nil {
		return err
	}
	if _, err := st.CreateMember(family.ID, "Me"); err != nil {
		return err
	}

	password := rand.Text()
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := st.CreateUser("admin", passwordHash, "admin", family.ID); err != nil {
		return err
	}
	log.Println("==================================================")
	log.Println("Default admin user created.")
	log.Printf("Username: admin")
	log.Printf("Password: %s", password)
	log.Printf("Family ID: %s", family.ID)
	log.Println("Please change this password immediately.")
	log.Println("==================================================")
	return nil
}
