package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"memorybook-backend/internal/folders"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/storage"
)

const (
	logsFolderName = "logs"
	logFileName    = "audit.log"
	logMimeType    = "text/plain"
)

// Logger maintains the append-only status-change trail of each order,
// one flat audit.log per order's logs folder. The remote store has no
// partial-append primitive, so every append is read-entire-log,
// concatenate, write-entire-log; a per-order mutex serializes that
// cycle so concurrent status changes on one order cannot drop entries.
// Different orders append fully in parallel.
type Logger struct {
	remote   storage.Remote
	resolver *folders.Resolver
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLogger(remote storage.Remote, resolver *folders.Resolver) *Logger {
	return &Logger{
		remote:   remote,
		resolver: resolver,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Append records one status transition for the order living in
// orderFolderID. Entries are never mutated or reordered afterwards.
func (l *Logger) Append(ctx context.Context, orderFolderID, orderID string, oldStatus, newStatus models.OrderStatus, note string) error {
	lock := l.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	logsID, err := l.resolver.GetOrCreate(ctx, logsFolderName, orderFolderID)
	if err != nil {
		return fmt.Errorf("failed to resolve logs folder for %s: %w", orderID, err)
	}

	entry := l.formatEntry(oldStatus, newStatus, note)

	file, err := l.remote.FindFile(ctx, logFileName, logsID)
	if errors.Is(err, storage.ErrNotFound) {
		_, err = l.remote.CreateFile(ctx, logFileName, logMimeType, logsID, strings.NewReader(entry))
		if err != nil {
			return fmt.Errorf("failed to create audit log for %s: %w", orderID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to locate audit log for %s: %w", orderID, err)
	}

	existing, err := l.remote.Download(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("failed to read audit log for %s: %w", orderID, err)
	}

	updated := string(existing) + entry
	if err := l.remote.UpdateFile(ctx, file.ID, logMimeType, strings.NewReader(updated)); err != nil {
		return fmt.Errorf("failed to write audit log for %s: %w", orderID, err)
	}
	return nil
}

// formatEntry renders one entry, blank-line terminated:
//
//	[2026-02-02T15:34:00Z] Status changed: submitted → psd_done
//	Note: rush order
func (l *Logger) formatEntry(oldStatus, newStatus models.OrderStatus, note string) string {
	timestamp := l.now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("[%s] Status changed: %s → %s", timestamp, oldStatus, newStatus)
	if note != "" {
		return entry + "\nNote: " + note + "\n\n"
	}
	return entry + "\n\n"
}

func (l *Logger) orderLock(orderID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[orderID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[orderID] = lock
	}
	return lock
}
