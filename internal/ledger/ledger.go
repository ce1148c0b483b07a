package ledger

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var bucketAnnounced = []byte("announced")

// Ledger records article IDs that downstream publishers already
// announced, so a re-run does not notify the same article twice. The
// feed document itself never reads this store.
type Ledger struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt-backed ledger at path.
func Open(path string) (*Ledger, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAnnounced)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger bucket: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Seen reports whether the article ID was already announced.
func (l *Ledger) Seen(id string) (bool, error) {
	var seen bool
	err := l.db.View(func(tx *bolt.Tx) error {
		seen = tx.Bucket(bucketAnnounced).Get([]byte(id)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read ledger: %w", err)
	}
	return seen, nil
}

// MarkSeen records the article IDs as announced.
func (l *Ledger) MarkSeen(ids ...string) error {
	err := l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAnnounced)
		for _, id := range ids {
			if id == "" {
				continue
			}
			if err := bucket.Put([]byte(id), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}
	return nil
}
