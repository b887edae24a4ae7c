// Package file persists the ledger as a JSON array on disk, one file per
// storage key. Another process writing the same file is detected by polling
// the file's modification time; the most recent write wins.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

const defaultPollInterval = 2 * time.Second

// Repository reads and writes the ledger file atomically (write-then-rename).
type Repository struct {
	path     string
	interval time.Duration

	mu        sync.Mutex
	lastWrite time.Time

	changes chan struct{}
}

// Option adjusts repository behavior.
type Option func(*Repository)

// WithPollInterval overrides how often the file is checked for external writes.
func WithPollInterval(interval time.Duration) Option {
	return func(r *Repository) {
		r.interval = interval
	}
}

// NewRepository creates a repository persisting under dir/<storageKey>.json.
func NewRepository(dir, storageKey string, opts ...Option) *Repository {
	r := &Repository{
		path:     filepath.Join(dir, storageKey+".json"),
		interval: defaultPollInterval,
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the persisted ledger. A missing file is an empty ledger; an
// unparseable payload reports ErrCorrupted.
func (r *Repository) Load(_ context.Context) ([]domain.Order, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Order{}, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	r.mu.Lock()
	if info, err := os.Stat(r.path); err == nil {
		r.lastWrite = info.ModTime()
	}
	r.mu.Unlock()

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCorrupted, err)
	}

	return orders, nil
}

// Save replaces the file contents wholesale.
func (r *Repository) Save(_ context.Context, orders []domain.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}

	r.mu.Lock()
	if info, err := os.Stat(r.path); err == nil {
		r.lastWrite = info.ModTime()
	}
	r.mu.Unlock()

	return nil
}

// Changes signals writes that did not come through this repository's own Save.
func (r *Repository) Changes() <-chan struct{} {
	return r.changes
}

// Watch polls the file's modification time until ctx is canceled, firing the
// change signal when another writer touched the file.
func (r *Repository) Watch(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if r.externallyModified() {
					select {
					case r.changes <- struct{}{}:
					default:
					}
				}
			}
		}
	}()
}

func (r *Repository) externallyModified() bool {
	info, err := os.Stat(r.path)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if info.ModTime().After(r.lastWrite) {
		r.lastWrite = info.ModTime()
		return true
	}
	return false
}
