package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/soaringjerry/Nuvio/internal/api"
	dbstore "github.com/soaringjerry/Nuvio/internal/db"
	"github.com/soaringjerry/Nuvio/internal/models"
)

func seedSnapshot(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	src, err := api.NewMemoryStoreFromPath(path)
	if err != nil {
		t.Fatalf("snapshot store: %v", err)
	}
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := src.AddUser(ctx, models.User{ID: "u1", Email: "a@example.com", PassHash: []byte("h"), CreatedAt: ts}); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := src.AddMood(ctx, "u1", models.MoodEntry{ID: "m1", Timestamp: ts, MoodScore: 4, Note: "ok"}); err != nil {
		t.Fatalf("add mood: %v", err)
	}
	if err := src.AddChatMessage(ctx, "u1", models.ChatMessage{ID: "c1", Timestamp: ts, Role: models.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("add chat: %v", err)
	}
	if err := src.AddAssessment(ctx, "u1", models.AssessmentSession{ID: "a1", Type: models.WHO5, StartedAt: ts}); err != nil {
		t.Fatalf("add assessment: %v", err)
	}
}

func TestMigrateIfNeededImportsSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "snapshot.json")
	dbPath := filepath.Join(dir, "data", "nuvio.db")
	seedSnapshot(t, snapPath)

	ctx := context.Background()
	if err := MigrateIfNeeded(ctx, snapPath, dbstore.DriverPure, dbPath, ""); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sqlDB, err := dbstore.Open(dbstore.DriverPure, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store, err := dbstore.NewSQLiteStore(sqlDB)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()

	u, err := store.FindUserByEmail(ctx, "a@example.com")
	if err != nil || u == nil || u.ID != "u1" {
		t.Fatalf("expected imported user, got %+v err=%v", u, err)
	}
	moods, err := store.ListMoods(ctx, "u1")
	if err != nil || len(moods) != 1 || moods[0].MoodScore != 4 {
		t.Fatalf("unexpected moods %+v err=%v", moods, err)
	}
	chat, err := store.ListChatMessages(ctx, "u1")
	if err != nil || len(chat) != 1 {
		t.Fatalf("unexpected chat %+v err=%v", chat, err)
	}
	sessions, err := store.ListAssessments(ctx, "u1")
	if err != nil || len(sessions) != 1 || sessions[0].Type != models.WHO5 {
		t.Fatalf("unexpected assessments %+v err=%v", sessions, err)
	}
}

func TestMigrateIfNeededSkipsWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nuvio.db")
	if err := MigrateIfNeeded(context.Background(), filepath.Join(dir, "missing.json"), dbstore.DriverPure, dbPath, ""); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := dbstore.Open(dbstore.DriverPure, dbPath); err != nil {
		t.Fatalf("open: %v", err)
	}
}

func TestMigrateIfNeededRequiresPath(t *testing.T) {
	if err := MigrateIfNeeded(context.Background(), "x.json", dbstore.DriverPure, "", ""); err == nil {
		t.Fatalf("expected error for empty sqlite path")
	}
}
