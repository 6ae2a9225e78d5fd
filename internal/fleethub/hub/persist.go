package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/internal/fleethub/store"
	"github.com/autopeer-io/fleethub/internal/pkg/metrics"
	"github.com/autopeer-io/fleethub/pkg/log"
)

// Save writes the registry to the snapshot path. Only the copy of the registry
// is taken on the loop; encoding, writing and the backup upload run on the
// caller's goroutine and are serialized against other saves and reloads.
func (h *Hub) Save(ctx context.Context) error {
	var snap store.Snapshot
	if err := h.do(ctx, func() { snap = h.registry.Snapshot() }); err != nil {
		return err
	}

	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	start := time.Now()
	data, err := store.Write(h.snapshotPath, snap)
	metrics.SnapshotWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("saving registry to %s: %w", h.snapshotPath, err)
	}
	metrics.SnapshotWritesTotal.WithLabelValues("ok").Inc()
	h.lastDigest = blake3.Sum256(data)
	log.Info("Registry snapshot saved", "path", h.snapshotPath, "vehicles", len(snap), "bytes", len(data))

	if h.backup != nil {
		if err := h.backup.Upload(ctx, data); err != nil {
			log.Error(err, "Failed to back up registry snapshot", "path", h.snapshotPath)
		}
	}
	return nil
}

// Reload merges the snapshot file into the registry. Content identical to the
// last snapshot this hub wrote is ignored. A corrupt file leaves the registry
// untouched and returns an error matching store.ErrCorrupt.
func (h *Hub) Reload(ctx context.Context) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	data, snap, err := store.Read(h.snapshotPath)
	if err != nil {
		return fmt.Errorf("reloading registry from %s: %w", h.snapshotPath, err)
	}
	digest := blake3.Sum256(data)
	if digest == h.lastDigest {
		log.Debug("Snapshot unchanged, skipping reload", "path", h.snapshotPath)
		return nil
	}

	var added, removed []string
	if err := h.do(ctx, func() {
		added, removed = h.registry.Merge(snap)
		if found, err := h.registry.GetByID(added...); err == nil {
			for _, v := range found {
				if v.Status == model.Online {
					v.Status = model.Offline
				}
			}
		}
		for _, id := range added {
			h.rebind(id)
		}
		h.updateGauges()
	}); err != nil {
		return err
	}
	h.lastDigest = digest
	log.Info("Registry reloaded", "path", h.snapshotPath, "added", added, "removed", removed)
	return nil
}
