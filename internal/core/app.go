package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/vrsandeep/shelf-go/internal/config"
	"github.com/vrsandeep/shelf-go/internal/db"
	"github.com/vrsandeep/shelf-go/internal/jobs"
	"github.com/vrsandeep/shelf-go/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the CLI. It implements jobs.JobContext.
type App struct {
	cfg        *config.Config
	db         *sql.DB
	wsHub      *websocket.Hub
	jobManager *jobs.JobManager
	Version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
// An empty configPath reads config.yml from the working directory.
func New(configPath, version string) (*App, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	log.Println("Core application setup complete.")
	return NewApp(cfg, database, version), nil
}

// NewApp assembles an App from already opened parts. The websocket hub is
// created but not started; the server starts it with go app.WsHub().Run().
func NewApp(cfg *config.Config, database *sql.DB, version string) *App {
	app := &App{
		cfg:     cfg,
		db:      database,
		wsHub:   websocket.NewHub(),
		Version: version,
	}
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterDefaults(app.jobManager)
	return app
}

func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) DB() *sql.DB                  { return a.db }
func (a *App) WsHub() *websocket.Hub        { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
