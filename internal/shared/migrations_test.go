package shared

import (
	"testing"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		file          string
		wantVersion   int
		wantName      string
		wantDirection string
		wantOK        bool
	}{
		{"0000_http_cache_up.sql", 0, "http_cache", "up", true},
		{"0012_add_index_down.sql", 12, "add_index", "down", true},
		{"0000_http_cache.sql", 0, "", "", false},
		{"readme.md", 0, "", "", false},
		{"abc_thing_up.sql", 0, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, direction, ok := parseMigrationName(tt.file)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || direction != tt.wantDirection {
				t.Errorf("got (%d, %q, %q), want (%d, %q, %q)", version, name, direction, tt.wantVersion, tt.wantName, tt.wantDirection)
			}
		})
	}
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations and RollbackMigration", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM http_cache LIMIT 1"); err != nil {
			t.Errorf("http_cache table should exist after migrations: %v", err)
		}

		version, err := MigrationVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0, got %d", version)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM http_cache LIMIT 1"); err == nil {
			t.Error("http_cache table should not exist after rollback")
		}

		if version, _ := MigrationVersion(db); version != -1 {
			t.Errorf("expected no applied migrations, got version %d", version)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		for i := range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("run %d: failed to run migrations: %v", i+1, err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}

func TestStripComments(t *testing.T) {
	got := stripComments("-- heading\nCREATE TABLE t (id TEXT) -- trailing\n\n")
	if got != "CREATE TABLE t (id TEXT)" {
		t.Errorf("stripComments() = %q", got)
	}
}
