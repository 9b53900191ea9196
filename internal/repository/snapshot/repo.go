// Package snapshot persists recommendation snapshots append-only. Snapshot
// bodies are immutable JSON documents; a per-user pointer names the latest
// one and is swung only after the body is fully written, so readers see an
// old snapshot or the new one, never a partial write.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spontime/geocore/internal/db"
	"github.com/spontime/geocore/internal/domain"
)

// store is the consumer interface for snapshot documents (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/reco.SnapshotStore.
type Repo struct {
	store  store
	prefix string
}

// New creates a snapshot repository. An empty prefix falls back to the
// default keyspace prefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Append writes the snapshot body, then swings the user's latest pointer.
func (r *Repo) Append(ctx context.Context, snap domain.RecoSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	bodyKey := r.bodyKey(snap.UserID, snap.ID)
	if err := r.store.Set(ctx, bodyKey, data); err != nil {
		return fmt.Errorf("set %s: %w", bodyKey, err)
	}

	latestKey := r.latestKey(snap.UserID)
	if err := r.store.Set(ctx, latestKey, []byte(snap.ID)); err != nil {
		return fmt.Errorf("set %s: %w", latestKey, err)
	}
	return nil
}

// Latest returns the user's most recent snapshot, or domain.ErrNotFound
// when none has been generated yet.
func (r *Repo) Latest(ctx context.Context, userID string) (domain.RecoSnapshot, error) {
	latestKey := r.latestKey(userID)
	id, err := r.store.Get(ctx, latestKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.RecoSnapshot{}, domain.ErrNotFound
		}
		return domain.RecoSnapshot{}, fmt.Errorf("get %s: %w", latestKey, err)
	}

	bodyKey := r.bodyKey(userID, string(id))
	raw, err := r.store.Get(ctx, bodyKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.RecoSnapshot{}, domain.ErrNotFound
		}
		return domain.RecoSnapshot{}, fmt.Errorf("get %s: %w", bodyKey, err)
	}

	var snap domain.RecoSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.RecoSnapshot{}, fmt.Errorf("unmarshal %s: %w", bodyKey, err)
	}
	return snap, nil
}

func (r *Repo) bodyKey(userID, snapshotID string) string {
	return fmt.Sprintf("%ssnapshot:%s:%s", r.prefix, userID, snapshotID)
}

func (r *Repo) latestKey(userID string) string {
	return fmt.Sprintf("%ssnapshot:%s:latest", r.prefix, userID)
}
