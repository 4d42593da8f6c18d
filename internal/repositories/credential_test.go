package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(models.SourceCookie, "tok")

		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}
		if c.ID() == "" {
			t.Error("credential ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(models.SourceLocal, "tok")
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}

		got, err := repo.Get(c.ID())
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.Token() != "tok" || got.Source() != models.SourceLocal {
			t.Errorf("unexpected credential %s/%s", got.Source(), got.Token())
		}
	})

	t.Run("GetBySource", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if _, err := repo.GetBySource(models.SourceCookie); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on empty store, got %v", err)
		}

		if err := repo.Create(models.NewCredential(models.SourceCookie, "cookie-token")); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}
		got, err := repo.GetBySource(models.SourceCookie)
		if err != nil || got.Token() != "cookie-token" {
			t.Errorf("GetBySource() = %v, %v", got, err)
		}
	})

	t.Run("Save Upserts By Source", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		first, err := repo.Save(models.SourceLocal, "one")
		if err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		second, err := repo.Save(models.SourceLocal, "two")
		if err != nil {
			t.Fatalf("second save failed: %v", err)
		}
		if first.ID() != second.ID() {
			t.Error("saving the same source should keep the row")
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 1 || all[0].Token() != "two" {
			t.Errorf("expected one row with latest token, got %d rows", len(all))
		}
	})

	t.Run("List Filters By Source", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Save(models.SourceLocal, "l")
		repo.Save(models.SourceCookie, "c")

		got, err := repo.List(map[string]any{"source": models.SourceCookie})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 1 || got[0].Token() != "c" {
			t.Errorf("expected only cookie credential, got %d", len(got))
		}

		got, err = repo.List(map[string]any{"source": "local"})
		if err != nil || len(got) != 1 {
			t.Errorf("string source filter failed: %d, %v", len(got), err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c, _ := repo.Save(models.SourceCookie, "tok")

		if err := repo.Delete(c.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(c.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("DeleteBySource", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Save(models.SourceCookie, "c")
		repo.Save(models.SourceLocal, "l")

		if err := repo.DeleteBySource(models.SourceCookie); err != nil {
			t.Fatalf("failed to delete by source: %v", err)
		}
		if err := repo.DeleteBySource(models.SourceCookie); err != nil {
			t.Errorf("deleting a missing source should succeed, got %v", err)
		}
		if _, err := repo.GetBySource(models.SourceLocal); err != nil {
			t.Errorf("local credential should survive, got %v", err)
		}
	})
}

func TestCredentialRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewCredentialRepository(setupTestDB(t))
			if err := repo.Create(models.NewCredential(models.SourceCookie, "")); err == nil {
				t.Fatal("expected validation error for empty token")
			}
		})

		t.Run("DuplicateSource", func(t *testing.T) {
			repo := NewCredentialRepository(setupTestDB(t))
			if err := repo.Create(models.NewCredential(models.SourceCookie, "a")); err != nil {
				t.Fatalf("failed to create first credential: %v", err)
			}
			if err := repo.Create(models.NewCredential(models.SourceCookie, "b")); err == nil {
				t.Fatal("expected error when creating a second credential for the same source")
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewCredentialRepository(setupTestDB(t))
			c := models.NewCredential(models.SourceLocal, "tok")
			c.SetID("nonexistent-id")

			if err := repo.Update(c); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewCredentialRepository(setupTestDB(t))
			if err := repo.Delete("nonexistent-id"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCredentialRepository(db)
		db.Close()

		if _, err := repo.GetBySource(models.SourceLocal); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("expected query failure, got %v", err)
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected list failure on closed database")
		}
	})
}
