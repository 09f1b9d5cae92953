package directory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dkeye/VoiceCall/internal/domain"
)

var seed = []domain.UserProfile{
	{ID: "bob", Username: "Bob", Email: "bob@example.com"},
	{ID: "alice", Username: "Alice", ProfilePic: "/a.png"},
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "dir", "users.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDirectories(t *testing.T) {
	impls := map[string]func(t *testing.T) Directory{
		"memory": func(*testing.T) Directory { return NewMemory() },
		"sqlite": func(t *testing.T) Directory { return openSQLite(t) },
	}
	for name, open := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := open(t)
			if err := Seed(ctx, d, seed); err != nil {
				t.Fatalf("Seed: %v", err)
			}

			users, err := d.ListUsers(ctx)
			if err != nil {
				t.Fatalf("ListUsers: %v", err)
			}
			if len(users) != 2 || users[0].ID != "alice" || users[1].ID != "bob" {
				t.Fatalf("ListUsers = %+v", users)
			}

			got, err := d.GetUser(ctx, "bob")
			if err != nil {
				t.Fatalf("GetUser: %v", err)
			}
			if got != seed[0] {
				t.Fatalf("GetUser = %+v, want %+v", got, seed[0])
			}

			if _, err := d.GetUser(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
				t.Fatalf("missing user err = %v", err)
			}

			upd := domain.UserProfile{ID: "bob", Username: "Robert"}
			if err := d.PutUser(ctx, upd); err != nil {
				t.Fatalf("PutUser: %v", err)
			}
			if got, _ := d.GetUser(ctx, "bob"); got.Username != "Robert" || got.Email != "" {
				t.Fatalf("after update = %+v", got)
			}

			if err := d.PutUser(ctx, domain.UserProfile{}); !errors.Is(err, domain.ErrUserIDEmpty) {
				t.Fatalf("empty id err = %v", err)
			}
		})
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.PutUser(context.Background(), seed[1]); err != nil {
		t.Fatalf("PutUser: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.GetUser(context.Background(), "alice")
	if err != nil || got != seed[1] {
		t.Fatalf("after reopen got %+v, %v", got, err)
	}
}
