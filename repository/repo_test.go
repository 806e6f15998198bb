package repository

import (
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
)

func TestNewRepo_UnreachableDatabase(t *testing.T) {
	// Port 1 is never listening; the dial fails immediately.
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=clipforge dbname=clipforge sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	repo, err := NewRepo(db)
	if err == nil {
		t.Fatalf("expected an error for an unreachable database")
	}
	if repo != nil {
		t.Fatalf("repo must be nil on error, got %v", repo)
	}
}
