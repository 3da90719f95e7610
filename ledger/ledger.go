// Package ledger keeps a local BoltDB record of generated CRAB requests and
// resolved parent datasets.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/cms-top/crabgen/util/fsutil"
)

// RequestBucket maps request name -> Record JSON
var RequestBucket = []byte("requests")

// ParentBucket maps dataset -> parent dataset
var ParentBucket = []byte("parents")

// ErrNotFound is returned when a request is not in the ledger.
var ErrNotFound = errors.New("request not found")

// Record describes one generated request.
type Record struct {
	RequestName  string    `json:"requestName"`
	Dataset      string    `json:"dataset"`
	InputDataset string    `json:"inputDataset"`
	Era          string    `json:"era"`
	Site         string    `json:"site"`
	Path         string    `json:"path"`
	RunID        string    `json:"runId"`
	CreatedAt    time.Time `json:"createdAt"`
	Submitted    bool      `json:"submitted"`
	TaskName     string    `json:"taskName,omitempty"`
}

// Ledger is a BoltDB backed record store.
type Ledger struct {
	db *bolt.DB
}

// New opens or creates the ledger database at "path".
func New(path string) (*Ledger, error) {
	if err := fsutil.EnsurePath(path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: time.Second * 5,
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

// Init creates the required buckets.
func (l *Ledger) Init() error {
	return l.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{RequestBucket, ParentBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// PutRequest stores "rec", replacing any record with the same request name.
func (l *Ledger) PutRequest(rec Record) error {
	if rec.RequestName == "" {
		return fmt.Errorf("ledger: record has no request name")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(RequestBucket).Put([]byte(rec.RequestName), b)
	})
}

// GetRequest returns the record of a request.
func (l *Ledger) GetRequest(name string) (Record, error) {
	var rec Record
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(RequestBucket).Get([]byte(name))
		if b == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return json.Unmarshal(b, &rec)
	})
	return rec, err
}

// ListRequests returns all records ordered by request name.
func (l *Ledger) ListRequests() ([]Record, error) {
	var out []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(RequestBucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %s: %w", k, err)
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

// GetParent returns the cached parent of "dataset".
func (l *Ledger) GetParent(dataset string) (string, bool, error) {
	var parent string
	err := l.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(ParentBucket).Get([]byte(dataset)); v != nil {
			parent = string(v)
		}
		return nil
	})
	return parent, parent != "", err
}

// PutParent caches the parent of "dataset".
func (l *Ledger) PutParent(dataset, parent string) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ParentBucket).Put([]byte(dataset), []byte(parent))
	})
}
