package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/iliyamo/theatre-booking/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{User: "theatre", Pass: "pw", Host: "db", Port: "3307", Name: "booking"}

	dsn := DSN(cfg, false)
	for _, want := range []string{"theatre:pw@tcp(db:3307)/booking", "parseTime=true", "clientFoundRows=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
	if strings.Contains(dsn, "multiStatements") {
		t.Fatalf("multiStatements must be off for the request pool: %q", dsn)
	}
	if !strings.Contains(DSN(cfg, true), "multiStatements=true") {
		t.Fatalf("migration dsn should enable multiStatements")
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatalf("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Fatalf("migration %s has no down file", v)
		}
	}
}

func TestTicketsHaveSeatUniqueness(t *testing.T) {
	b, err := fs.ReadFile(migrationFiles, "migrations/000003_reservations.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(b), "UNIQUE KEY uq_tickets_seat (performance_id, row_no, seat_no)") {
		t.Fatalf("tickets table must enforce one ticket per seat and performance")
	}
}
