package testutil

import (
	"database/sql"
	"testing"

	"github.com/vrsandeep/shelf-go/internal/db"
)

// SetupTestDB creates an in-memory SQLite database and applies all migrations.
// It returns the database connection, ready for use in tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", db.DSN(":memory:"))
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// Every new connection would get its own empty in-memory database.
	database.SetMaxOpenConns(1)

	t.Cleanup(func() {
		database.Close()
	})

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return database
}

// SeedFamily inserts a family with one member and returns their ids.
func SeedFamily(t *testing.T, database *sql.DB, familyName, memberName string) (familyID, memberID string) {
	t.Helper()
	familyID = "fam-" + familyName
	memberID = "mem-" + memberName
	if _, err := database.Exec("INSERT INTO families (id, name, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)", familyID, familyName); err != nil {
		t.Fatalf("Failed to seed family: %v", err)
	}
	SeedMember(t, database, familyID, memberID, memberName)
	return familyID, memberID
}

// SeedMember inserts a member into an existing family.
func SeedMember(t *testing.T, database *sql.DB, familyID, memberID, name string) {
	t.Helper()
	_, err := database.Exec("INSERT INTO members (id, family_id, name, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)", memberID, familyID, name)
	if err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
}
