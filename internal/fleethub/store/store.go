// Package store reads and writes registry snapshots.
//
// A snapshot is one flat document mapping vehicle ID to vehicle record.
// Writes go to a temporary file in the destination directory which is
// fsynced and renamed into place, so readers never observe a partial file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
)

// ErrCorrupt is returned when a snapshot exists but cannot be trusted.
var ErrCorrupt = errors.New("corrupt snapshot")

// Snapshot maps vehicle ID to vehicle record.
type Snapshot map[string]*model.Vehicle

// Read loads the snapshot at path. It returns the raw file content alongside
// the decoded snapshot. A missing file yields an error matching fs.ErrNotExist.
func Read(path string) ([]byte, Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	snap, err := Decode(path, data)
	if err != nil {
		return data, nil, err
	}
	return data, snap, nil
}

// Decode decodes data with the codec matching path and validates every record.
func Decode(path string, data []byte) (Snapshot, error) {
	snap, err := CodecFor(path).Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if snap == nil {
		return Snapshot{}, nil
	}

	for id, v := range snap {
		if v == nil {
			return nil, fmt.Errorf("%w: %s: vehicle %q has no record", ErrCorrupt, path, id)
		}
		if v.ID == "" {
			v.ID = id
		}
		if v.ID != id {
			return nil, fmt.Errorf("%w: %s: key %q holds vehicle %q", ErrCorrupt, path, id, v.ID)
		}
		v.Normalize()
	}
	return snap, nil
}

// Write encodes snap with the codec matching path and replaces the file atomically.
// It returns the bytes written.
func Write(path string, snap Snapshot) ([]byte, error) {
	if snap == nil {
		snap = Snapshot{}
	}
	data, err := CodecFor(path).Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := WriteFile(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile writes data to path through a synced temporary file and a rename.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary snapshot file: %w", err)
	}
	tmp := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing temporary snapshot file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing temporary snapshot file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temporary snapshot file: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("setting snapshot file mode: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming snapshot file into place: %w", err)
	}

	// Make the rename durable.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
