package salestore

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Snapshot keys used by the daemon. Kept here so the writer and the reader
// agree on the spelling.
const (
	SnapshotCatalog = "catalog"
	SnapshotBank    = "bank"
	SnapshotFreezer = "freezer"
	SnapshotMembers = "members"
)

var bucketSnapshots = []byte("snapshots")

// SaveSnapshot JSON-encodes the value under the given key, replacing any
// earlier snapshot. The daemon writes these after every mutating request so
// catalog and ledger state survive a restart alongside the engine buckets.
func (s *Store) SaveSnapshot(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("salestore: encode snapshot %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(key), raw)
	})
}

// LoadSnapshot decodes the snapshot under the key into out. It reports false
// without touching out when no snapshot has been written yet.
func (s *Store) LoadSnapshot(key string, out any) (bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(bucketSnapshots).Get([]byte(key))
		if stored != nil {
			raw = append([]byte(nil), stored...)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("salestore: read snapshot %s: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("salestore: decode snapshot %s: %w", key, err)
	}
	return true, nil
}
