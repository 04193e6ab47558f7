package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
)

type SnapshotStore interface {
	Backup(ctx context.Context) (*database.Snapshot, error)
	Restore(ctx context.Context, snap *database.Snapshot) error
}

// Backups writes snapshots of the store to files and restores them.
type Backups struct {
	store SnapshotStore
	fs    afero.Fs
	dir   string
}

func NewBackups(store SnapshotStore, fs afero.Fs, dir string) *Backups {
	return &Backups{store: store, fs: fs, dir: dir}
}

// BackupFilename names a snapshot taken at t.
func BackupFilename(t time.Time) string {
	return "mochi_backup_" + t.UTC().Format("20060102_150405") + ".json"
}

// Save writes a snapshot of the store into the backup directory and returns
// its path.
func (b *Backups) Save(ctx context.Context) (string, error) {
	snap, err := b.store.Backup(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}

	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	path := filepath.Join(b.dir, BackupFilename(snap.Timestamp))

	if err := afero.WriteFile(b.fs, path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}

	return path, nil
}

// Load reads a snapshot file without touching the store.
func (b *Backups) Load(path string) (*database.Snapshot, error) {
	data, err := afero.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}

	var snap database.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperr.Invalid("snapshot", apperr.Reason{Field: "file", Rule: "json", Message: err.Error()})
	}

	return &snap, nil
}

// Restore replaces the store content with the snapshot in path.
func (b *Backups) Restore(ctx context.Context, path string) error {
	snap, err := b.Load(path)
	if err != nil {
		return err
	}

	return b.store.Restore(ctx, snap)
}

// List returns the backup files in the directory, oldest first.
func (b *Backups) List() ([]string, error) {
	matches, err := afero.Glob(b.fs, filepath.Join(b.dir, "mochi_backup_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	return matches, nil
}
