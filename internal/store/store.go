// Package store persists payment intents in Badger.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

const (
	intentPrefix      = "intent:"
	computationPrefix = "comp:"

	// maxConflictRetries bounds re-evaluation of a conditional update that
	// lost an optimistic-concurrency race.
	maxConflictRetries = 16
)

// ErrExists is returned when creating an intent whose id is taken.
var ErrExists = errors.New("payment intent already exists")

type StoreConfig struct {
	Path     string // directory of the Badger database, ignored when InMemory
	InMemory bool
	Logger   *logrus.Logger
}

// IntentStore is a Badger-backed payment intent store. Conditional updates
// run in optimistic transactions, so two writers racing on the same intent
// are serialized: the loser re-reads the committed state and re-applies its
// guard.
type IntentStore struct {
	config StoreConfig
	db     *badger.DB
	log    *logrus.Logger
}

func NewIntentStore(config StoreConfig) (*IntentStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, errors.New("no path provided in configuration")
		}
		if err := os.MkdirAll(config.Path, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		opts = badger.DefaultOptions(config.Path)
		opts.ValueLogFileSize = 1024 * 1024 * 100 // 100MB value log files
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &IntentStore{
		config: config,
		db:     db,
		log:    config.Logger,
	}, nil
}

// Close flushes and closes the database.
func (s *IntentStore) Close() error {
	return s.db.Close()
}

func intentKey(id string) []byte {
	return []byte(intentPrefix + id)
}

func computationKey(id string) []byte {
	return []byte(computationPrefix + id)
}

// CreateIntent stores a new intent. It fails with ErrExists if the id is taken.
func (s *IntentStore) CreateIntent(ctx context.Context, intent *model.PaymentIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(intentKey(intent.ID))
		if err == nil {
			return ErrExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(intentKey(intent.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to create intent %s: %w", intent.ID, err)
	}
	return nil
}

// GetIntentByID loads one intent or returns model.ErrNotFound.
func (s *IntentStore) GetIntentByID(ctx context.Context, id string) (*model.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var intent *model.PaymentIntent
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		intent, err = readIntent(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// UpdateIntentStatus applies mutate to the current stored intent inside one
// transaction and persists the result. If mutate returns an error nothing is
// written and the error is returned unchanged. On a write conflict mutate is
// re-run against the freshly committed state.
func (s *IntentStore) UpdateIntentStatus(
	ctx context.Context,
	id string,
	mutate func(*model.PaymentIntent) error,
) (*model.PaymentIntent, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var updated *model.PaymentIntent
		err := s.db.Update(func(txn *badger.Txn) error {
			current, err := readIntent(txn, id)
			if err != nil {
				return err
			}

			next := current.Clone()
			if err := mutate(next); err != nil {
				return err
			}

			data, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("failed to marshal intent: %w", err)
			}
			if err := txn.Set(intentKey(id), data); err != nil {
				return err
			}

			if next.ComputationID != "" && next.ComputationID != current.ComputationID {
				if err := txn.Set(computationKey(next.ComputationID), []byte(id)); err != nil {
					return err
				}
			}

			updated = next
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			s.log.WithFields(logrus.Fields{"intent": id, "attempt": attempt}).Debug("intent update conflict, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("intent %s: too many concurrent updates: %w", id, badger.ErrConflict)
}

// FindByComputationID resolves the intent that owns a computation.
func (s *IntentStore) FindByComputationID(ctx context.Context, computationID string) (*model.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var intent *model.PaymentIntent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(computationKey(computationID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		intent, err = readIntent(txn, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// ListIntents returns the filtered page, newest first, and the total match count.
func (s *IntentStore) ListIntents(ctx context.Context, filter model.IntentFilter) ([]*model.PaymentIntent, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var matched []*model.PaymentIntent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(intentPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var intent model.PaymentIntent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &intent)
			})
			if err != nil {
				return fmt.Errorf("failed to decode intent: %w", err)
			}
			if matches(&intent, filter) {
				matched = append(matched, &intent)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 && filter.Limit < total-start {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func matches(intent *model.PaymentIntent, filter model.IntentFilter) bool {
	if filter.MerchantID != "" && intent.MerchantID != filter.MerchantID {
		return false
	}
	if filter.CustomerID != "" && intent.CustomerID != filter.CustomerID {
		return false
	}
	if filter.Status != nil && intent.Status != *filter.Status {
		return false
	}
	return true
}

func readIntent(txn *badger.Txn, id string) (*model.PaymentIntent, error) {
	item, err := txn.Get(intentKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var intent model.PaymentIntent
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &intent)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode intent %s: %w", id, err)
	}
	return &intent, nil
}
