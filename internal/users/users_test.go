package users

import (
	"context"
	"errors"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	u := User{ID: "u1", Username: "dewi", Name: "Dewi Santoso", Role: "learner", PassHash: "h1"}
	if err := s.Upsert(ctx, u); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := s.GetByUsername(ctx, "dewi")
	if err != nil || got.ID != "u1" {
		t.Fatalf("GetByUsername: %v (%+v)", err, got)
	}

	if err := s.SetPassword(ctx, "u1", "h2"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	got, _ = s.Get(ctx, "u1")
	if got.PassHash != "h2" {
		t.Fatalf("hash = %q, want h2", got.PassHash)
	}

	if err := s.SetPassword(ctx, "ghost", "h3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_ = s.Upsert(ctx, User{ID: "u2", Username: "admin", Role: "admin"})
	admins, err := s.List(ctx, "admin")
	if err != nil || len(admins) != 1 || admins[0].ID != "u2" {
		t.Fatalf("List(admin): %v (%+v)", err, admins)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 {
		t.Fatalf("List(all) = %d, want 2", len(all))
	}
}
