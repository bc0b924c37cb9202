// Package salestore persists sale and exchange engine state in a bbolt
// database so a restarted daemon keeps its purchase history, one-shot flags
// and reward table. It implements the state interfaces of native/sale and
// native/exchange.
package salestore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	bolt "go.etcd.io/bbolt"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/sale"
)

var (
	bucketSaleTypes       = []byte("sale_types")
	bucketStablecoins     = []byte("sale_stablecoins")
	bucketPurchases       = []byte("sale_purchases")
	bucketCollections     = []byte("sale_collections")
	bucketStrategicBought = []byte("strategic_purchased")
	bucketCharged         = []byte("exchange_charged")
	bucketRewards         = []byte("exchange_rewards")

	flagSet = []byte{0x01}
)

// Store is a bbolt-backed implementation of the engine state surfaces.
type Store struct {
	db    *bolt.DB
	scope []byte
}

// WithScope returns a view over the same database whose stablecoin set is
// keyed under the given label. Each sale engine gets its own scope so their
// accepted-asset sets stay independent.
func (s *Store) WithScope(label string) *Store {
	return &Store{db: s.db, scope: []byte(label + ":")}
}

// Open creates or opens the database file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("salestore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketSaleTypes,
			bucketStablecoins,
			bucketPurchases,
			bucketCollections,
			bucketStrategicBought,
			bucketCharged,
			bucketRewards,
			bucketSnapshots,
		}
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("salestore: init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func typeKey(id catalog.TypeID) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key[:]
}

func itemKey(item catalog.ItemID) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(item))
	return key[:]
}

func purchaseKey(account types.Address, id catalog.TypeID) []byte {
	key := make([]byte, len(account)+8)
	copy(key, account[:])
	binary.BigEndian.PutUint64(key[len(account):], uint64(id))
	return key
}

// SaleTypeGet implements sale.PublicState.
func (s *Store) SaleTypeGet(id catalog.TypeID) (*sale.TypeConfig, bool, error) {
	var cfg *sale.TypeConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSaleTypes).Get(typeKey(id))
		if raw == nil {
			return nil
		}
		decoded := &sale.TypeConfig{}
		if err := json.Unmarshal(raw, decoded); err != nil {
			return err
		}
		cfg = decoded
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("salestore: sale type %d: %w", id, err)
	}
	return cfg, cfg != nil, nil
}

// SaleTypePut implements sale.PublicState.
func (s *Store) SaleTypePut(cfg *sale.TypeConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("salestore: encode sale type: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSaleTypes).Put(typeKey(cfg.ID), raw)
	})
}

func (s *Store) stablecoinKey(asset types.Address) []byte {
	key := make([]byte, 0, len(s.scope)+len(asset))
	key = append(key, s.scope...)
	return append(key, asset[:]...)
}

// StablecoinAccepted implements sale.StablecoinState.
func (s *Store) StablecoinAccepted(asset types.Address) (bool, error) {
	var accepted bool
	err := s.db.View(func(tx *bolt.Tx) error {
		accepted = tx.Bucket(bucketStablecoins).Get(s.stablecoinKey(asset)) != nil
		return nil
	})
	return accepted, err
}

// StablecoinPut implements sale.StablecoinState.
func (s *Store) StablecoinPut(asset types.Address, accepted bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketStablecoins)
		if accepted {
			return bucket.Put(s.stablecoinKey(asset), flagSet)
		}
		return bucket.Delete(s.stablecoinKey(asset))
	})
}

// PurchasedCount implements sale.PublicState.
func (s *Store) PurchasedCount(account types.Address, id catalog.TypeID) (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPurchases).Get(purchaseKey(account, id))
		if raw != nil {
			count = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	return count, err
}

// SetPurchasedCount implements sale.PublicState.
func (s *Store) SetPurchasedCount(account types.Address, id catalog.TypeID, count uint64) error {
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], count)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPurchases).Put(purchaseKey(account, id), value[:])
	})
}

// CollectionAppend implements sale.PublicState. Items live in a per-account
// sub-bucket keyed by an autoincrementing index, so insertion order is the
// iteration order.
func (s *Store) CollectionAppend(account types.Address, item catalog.ItemID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(bucketCollections).CreateBucketIfNotExists(account[:])
		if err != nil {
			return err
		}
		index, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], index)
		return bucket.Put(key[:], itemKey(item))
	})
}

// CollectionLen implements sale.PublicState.
func (s *Store) CollectionLen(account types.Address) (uint64, error) {
	var length uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketCollections).Bucket(account[:])
		if bucket != nil {
			length = bucket.Sequence()
		}
		return nil
	})
	return length, err
}

// CollectionAt implements sale.PublicState.
func (s *Store) CollectionAt(account types.Address, index uint64) (catalog.ItemID, bool, error) {
	var (
		item  catalog.ItemID
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketCollections).Bucket(account[:])
		if bucket == nil {
			return nil
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], index+1)
		raw := bucket.Get(key[:])
		if raw == nil {
			return nil
		}
		item = catalog.ItemID(binary.BigEndian.Uint64(raw))
		found = true
		return nil
	})
	return item, found, err
}

// HasPurchased implements sale.StrategicState.
func (s *Store) HasPurchased(account types.Address) (bool, error) {
	var bought bool
	err := s.db.View(func(tx *bolt.Tx) error {
		bought = tx.Bucket(bucketStrategicBought).Get(account[:]) != nil
		return nil
	})
	return bought, err
}

// SetPurchased implements sale.StrategicState. The flag is one-way; there is
// no delete path.
func (s *Store) SetPurchased(account types.Address) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStrategicBought).Put(account[:], flagSet)
	})
}

// Charged implements exchange.State.
func (s *Store) Charged(item catalog.ItemID) (bool, error) {
	var charged bool
	err := s.db.View(func(tx *bolt.Tx) error {
		charged = tx.Bucket(bucketCharged).Get(itemKey(item)) != nil
		return nil
	})
	return charged, err
}

// SetCharged implements exchange.State. The marker is one-way; there is no
// delete path.
func (s *Store) SetCharged(item catalog.ItemID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCharged).Put(itemKey(item), flagSet)
	})
}

// RewardGet implements exchange.State.
func (s *Store) RewardGet(id catalog.TypeID) (*big.Int, error) {
	var reward *big.Int
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketRewards).Get(typeKey(id))
		if raw == nil {
			return nil
		}
		parsed, ok := new(big.Int).SetString(string(raw), 10)
		if !ok {
			return fmt.Errorf("corrupt reward for type %d", id)
		}
		reward = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("salestore: reward %d: %w", id, err)
	}
	return reward, nil
}

// RewardSet implements exchange.State.
func (s *Store) RewardSet(id catalog.TypeID, amount *big.Int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRewards).Put(typeKey(id), []byte(amount.String()))
	})
}
