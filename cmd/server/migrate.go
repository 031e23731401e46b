package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/soaringjerry/Nuvio/internal/api"
	dbstore "github.com/soaringjerry/Nuvio/internal/db"
	"github.com/soaringjerry/Nuvio/internal/logger"
)

// MigrateIfNeeded copies a legacy JSON snapshot into a fresh SQLite database. It does
// nothing when the database file already exists or there is no snapshot to import.
func MigrateIfNeeded(ctx context.Context, snapshotPath, driver, sqlitePath, migrationsDir string) error {
	if sqlitePath == "" {
		return errors.New("sqlite path is required")
	}
	if _, err := os.Stat(sqlitePath); err == nil {
		return nil // already migrated
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check sqlite file: %w", err)
	}
	if snapshotPath == "" {
		return nil
	}

	snap, err := api.LoadSnapshot(snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load legacy snapshot: %w", err)
	}

	log := logger.L().WithField("snapshot", snapshotPath)
	log.Info("first run detected, importing legacy snapshot")

	sqliteDB, err := dbstore.Open(driver, sqlitePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqliteDB.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close sqlite db")
		}
	}()

	if err := dbstore.RunMigrations(ctx, sqliteDB, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	dst, err := dbstore.NewSQLiteStore(sqliteDB)
	if err != nil {
		return fmt.Errorf("init sqlite store: %w", err)
	}

	n, err := copySnapshotToStore(ctx, snap, dst)
	if err != nil {
		return fmt.Errorf("copy data: %w", err)
	}
	log.WithField("records", n).Info("legacy snapshot import completed")
	return nil
}

func copySnapshotToStore(ctx context.Context, snap *api.Snapshot, dst api.Store) (int, error) {
	n := 0
	for _, u := range snap.Users {
		if err := dst.AddUser(ctx, u); err != nil {
			return n, fmt.Errorf("user %s: %w", u.ID, err)
		}
		n++
	}
	for uid, moods := range snap.Moods {
		for _, m := range moods {
			if err := dst.AddMood(ctx, uid, m); err != nil {
				return n, fmt.Errorf("mood %s: %w", m.ID, err)
			}
			n++
		}
	}
	for uid, msgs := range snap.Chat {
		for _, msg := range msgs {
			if err := dst.AddChatMessage(ctx, uid, msg); err != nil {
				return n, fmt.Errorf("chat message %s: %w", msg.ID, err)
			}
			n++
		}
	}
	for uid, sessions := range snap.Assessments {
		for _, a := range sessions {
			if err := dst.AddAssessment(ctx, uid, a); err != nil {
				return n, fmt.Errorf("assessment %s: %w", a.ID, err)
			}
			n++
		}
	}
	return n, nil
}
