// internal/repository/session_repository_test.go
package repository

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"serial-terminal/internal/database"
	"serial-terminal/internal/model"
)

func newTestRepo(t *testing.T) SessionRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "app.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewSessionRepository(db)
}

func TestSaveAndGetRoundTripsConfig(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cfg := model.DefaultSerialConfig()
	cfg.BaudRate = 9600
	cfg.Parity = model.ParityEven

	if err := repo.Save(ctx, model.Session{Name: "plc-line", Config: cfg}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, "plc-line")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Config.BaudRate != 9600 || got.Config.Parity != model.ParityEven {
		t.Fatalf("config did not round-trip: %+v", got.Config)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps must be set on save")
	}
}

func TestSaveUpsertsExistingName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cfg := model.DefaultSerialConfig()
	if err := repo.Save(ctx, model.Session{Name: "bench", Config: cfg}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg.BaudRate = 57600
	if err := repo.Save(ctx, model.Session{Name: "bench", Config: cfg}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sessions, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}
	if sessions[0].Config.BaudRate != 57600 {
		t.Fatalf("baud rate = %d, want updated 57600", sessions[0].Config.BaudRate)
	}
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Save(ctx, model.Session{Name: "", Config: model.DefaultSerialConfig()}); err == nil {
		t.Fatal("empty name must be rejected")
	}

	bad := model.DefaultSerialConfig()
	bad.BaudRate = -1
	if err := repo.Save(ctx, model.Session{Name: "bad", Config: bad}); err == nil {
		t.Fatal("invalid config must be rejected")
	}
}

func TestListOrdersByName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := repo.Save(ctx, model.Session{Name: name, Config: model.DefaultSerialConfig()}); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	sessions, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected three sessions, got %d", len(sessions))
	}
	if sessions[0].Name != "alpha" || sessions[1].Name != "mid" || sessions[2].Name != "zeta" {
		t.Fatalf("unexpected order: %v", sessions)
	}
}

func TestGetAndDeleteMissingSession(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Get(ctx, "ghost"); err != ErrSessionNotFound {
		t.Fatalf("get missing = %v, want ErrSessionNotFound", err)
	}
	if err := repo.Delete(ctx, "ghost"); err != ErrSessionNotFound {
		t.Fatalf("delete missing = %v, want ErrSessionNotFound", err)
	}

	if err := repo.Save(ctx, model.Session{Name: "real", Config: model.DefaultSerialConfig()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "real"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sessions, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty list, got %d", len(sessions))
	}
}
