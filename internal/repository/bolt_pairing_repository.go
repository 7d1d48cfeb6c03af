// internal/repository/bolt_pairing_repository.go
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"pos-service/internal/model"
)

var (
	pairingBucket = []byte("pairing")
	lastDeviceKey = []byte("last_device")
)

// BoltPairingRepository persists the last used printer in a bbolt file so it
// survives a restart
type BoltPairingRepository struct {
	db *bbolt.DB
}

// NewBoltPairingRepository opens or creates the pairing database at path
func NewBoltPairingRepository(path string) (*BoltPairingRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating pairing directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening pairing db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(pairingBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating pairing bucket: %w", err)
	}

	return &BoltPairingRepository{db: db}, nil
}

// Load returns the remembered device or nil
func (r *BoltPairingRepository) Load(ctx context.Context) (*model.PairedDevice, error) {
	var device *model.PairedDevice

	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(pairingBucket).Get(lastDeviceKey)
		if data == nil {
			return nil
		}
		device = &model.PairedDevice{}
		if err := json.Unmarshal(data, device); err != nil {
			return fmt.Errorf("unmarshaling paired device: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

// Save remembers device
func (r *BoltPairingRepository) Save(ctx context.Context, device *model.PairedDevice) error {
	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("marshaling paired device: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(pairingBucket).Put(lastDeviceKey, data)
	})
}

// Clear forgets the device
func (r *BoltPairingRepository) Clear(ctx context.Context) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(pairingBucket).Delete(lastDeviceKey)
	})
}

// Persistent is true for the bbolt store
func (r *BoltPairingRepository) Persistent() bool {
	return true
}

// Close closes the database
func (r *BoltPairingRepository) Close() error {
	return r.db.Close()
}
