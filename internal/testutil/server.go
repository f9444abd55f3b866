// Shared test server setup, which simplifies all API tests.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/vrsandeep/shelf-go/internal/api"
	"github.com/vrsandeep/shelf-go/internal/config"
	"github.com/vrsandeep/shelf-go/internal/core"
)

// SetupTestApp assembles a core.App over an in-memory database, with
// covers written to a temporary directory and the websocket hub running.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	db := SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Covers.Path = t.TempDir()
	app := core.NewApp(cfg, db, "test")
	go app.WsHub().Run()
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t)
	return api.NewServer(app), app.DB()
}
