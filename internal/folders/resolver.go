package folders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"memorybook-backend/internal/storage"
)

// Hierarchy is the resolved year/month path an order folder lives in.
type Hierarchy struct {
	RootID  string
	YearID  string
	MonthID string
}

// Resolver performs idempotent get-or-create of named folders in the
// remote store. Same-process callers racing on one (parent, name) pair
// are collapsed by singleflight and resolutions are cached for the
// process lifetime. Known limitation: two *processes* that both observe
// "not found" can still create duplicate folders on backends without a
// name-uniqueness constraint (Google Drive); backends that do signal a
// conflict get the existing folder adopted instead.
type Resolver struct {
	remote   storage.Remote
	rootID   string
	rootName string

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]string
}

// NewResolver builds a resolver rooted at rootID when set; otherwise
// the root folder named rootName is resolved (and created on first use)
// at the top of the store.
func NewResolver(remote storage.Remote, rootID, rootName string) *Resolver {
	return &Resolver{
		remote:   remote,
		rootID:   rootID,
		rootName: rootName,
		cache:    make(map[string]string),
	}
}

// GetOrCreate returns the id of the folder called name under parentID,
// creating it when absent.
func (r *Resolver) GetOrCreate(ctx context.Context, name, parentID string) (string, error) {
	key := parentID + "\x00" + name
	if id, ok := r.cached(key); ok {
		return id, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if id, ok := r.cached(key); ok {
			return id, nil
		}

		id, err := r.lookup(ctx, name, parentID)
		if err == nil {
			r.remember(key, id)
			return id, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}

		id, err = r.remote.CreateFolder(ctx, name, parentID)
		if errors.Is(err, storage.ErrConflict) {
			// Lost a cross-process race; adopt the winner's folder.
			id, err = r.lookup(ctx, name, parentID)
		}
		if err != nil {
			return nil, err
		}
		r.remember(key, id)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Create makes a folder unconditionally, with no existence check and no
// caching. Used for folders that must be fresh per order.
func (r *Resolver) Create(ctx context.Context, name, parentID string) (string, error) {
	return r.remote.CreateFolder(ctx, name, parentID)
}

// Root returns the id of the configured root folder, resolving it by
// name when no fixed id was configured.
func (r *Resolver) Root(ctx context.Context) (string, error) {
	if r.rootID != "" {
		return r.rootID, nil
	}
	return r.GetOrCreate(ctx, r.rootName, "")
}

// ResolveOrderHierarchy walks root → year → month for the given date,
// creating any missing level.
func (r *Resolver) ResolveOrderHierarchy(ctx context.Context, date time.Time) (Hierarchy, error) {
	rootID, err := r.Root(ctx)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("failed to resolve root folder: %w", err)
	}

	yearID, err := r.GetOrCreate(ctx, date.Format("2006"), rootID)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("failed to resolve year folder: %w", err)
	}

	monthID, err := r.GetOrCreate(ctx, date.Format("01"), yearID)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("failed to resolve month folder: %w", err)
	}

	return Hierarchy{RootID: rootID, YearID: yearID, MonthID: monthID}, nil
}

func (r *Resolver) lookup(ctx context.Context, name, parentID string) (string, error) {
	existing, err := r.remote.ListFolders(ctx, parentID)
	if err != nil {
		return "", err
	}
	for _, f := range existing {
		if f.Name == name {
			return f.ID, nil
		}
	}
	return "", fmt.Errorf("folder %q under %q: %w", name, parentID, storage.ErrNotFound)
}

func (r *Resolver) cached(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.cache[key]
	return id, ok
}

func (r *Resolver) remember(key, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = id
}
