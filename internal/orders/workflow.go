package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"memorybook-backend/internal/audit"
	"memorybook-backend/internal/folders"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/storage"
)

const (
	// ManifestFileName is the order.json document in each order folder.
	ManifestFileName = "order.json"
	manifestMimeType = "application/json"
)

var (
	ErrOrderNotFound    = errors.New("orders: order not found")
	ErrManifestNotFound = errors.New("orders: order.json not found")
	ErrInvalidStatus    = errors.New("orders: invalid status")
)

// Transition is the outcome of one status change.
type Transition struct {
	OrderID   string             `json:"orderId"`
	OldStatus models.OrderStatus `json:"oldStatus"`
	NewStatus models.OrderStatus `json:"newStatus"`
}

// BulkFailure is one order a bulk update could not process.
type BulkFailure struct {
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}

// BulkResult partitions a bulk update: every requested id lands in
// exactly one of the two lists. Partial success is the normal outcome,
// not an error.
type BulkResult struct {
	Updated []Transition  `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

// Workflow drives an order's status through the production pipeline.
// The manifest's status field is the only persisted state; membership
// in the closed status set is enforced, ordering is not — any status is
// reachable from any other.
type Workflow struct {
	remote   storage.Remote
	resolver *folders.Resolver
	audit    *audit.Logger
	now      func() time.Time

	mu    sync.Mutex
	index map[string]storage.Folder
}

func NewWorkflow(remote storage.Remote, resolver *folders.Resolver, auditLog *audit.Logger) *Workflow {
	return &Workflow{
		remote:   remote,
		resolver: resolver,
		audit:    auditLog,
		now:      time.Now,
		index:    make(map[string]storage.Folder),
	}
}

// FindOrder locates the folder of an order by scanning the year→month
// hierarchy. The order id segment of each folder name is compared
// exactly (never by substring), and hits are indexed per process so
// repeat lookups skip the traversal.
func (w *Workflow) FindOrder(ctx context.Context, orderID string) (storage.Folder, error) {
	if f, ok := w.indexed(orderID); ok {
		return f, nil
	}

	rootID, err := w.resolver.Root(ctx)
	if err != nil {
		return storage.Folder{}, fmt.Errorf("failed to resolve root folder: %w", err)
	}

	years, err := w.remote.ListFolders(ctx, rootID)
	if err != nil {
		return storage.Folder{}, fmt.Errorf("failed to list year folders: %w", err)
	}
	for _, year := range years {
		months, err := w.remote.ListFolders(ctx, year.ID)
		if err != nil {
			return storage.Folder{}, fmt.Errorf("failed to list month folders: %w", err)
		}
		for _, month := range months {
			orderFolders, err := w.remote.ListFolders(ctx, month.ID)
			if err != nil {
				return storage.Folder{}, fmt.Errorf("failed to list order folders: %w", err)
			}
			for _, f := range orderFolders {
				if FolderOrderID(f.Name) == orderID {
					w.remember(orderID, f)
					return f, nil
				}
			}
		}
	}

	return storage.Folder{}, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
}

// SetStatus moves an order to newStatus, persists the manifest, and
// appends the transition to the order's audit trail.
func (w *Workflow) SetStatus(ctx context.Context, orderID, newStatus, note string) (Transition, error) {
	status, ok := models.ParseOrderStatus(newStatus)
	if !ok {
		return Transition{}, fmt.Errorf("status %q: %w", newStatus, ErrInvalidStatus)
	}

	folder, err := w.FindOrder(ctx, orderID)
	if err != nil {
		return Transition{}, err
	}

	file, err := w.remote.FindFile(ctx, ManifestFileName, folder.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return Transition{}, fmt.Errorf("order %s: %w", orderID, ErrManifestNotFound)
	}
	if err != nil {
		return Transition{}, fmt.Errorf("failed to locate manifest for %s: %w", orderID, err)
	}

	manifest, err := w.loadManifest(ctx, file.ID)
	if err != nil {
		return Transition{}, fmt.Errorf("failed to load manifest for %s: %w", orderID, err)
	}

	oldStatus := manifest.Status
	if oldStatus == "" {
		oldStatus = models.StatusSubmitted
	}

	now := w.now()
	manifest.Status = status
	manifest.LastUpdated = &now

	if err := w.saveManifest(ctx, file.ID, manifest); err != nil {
		return Transition{}, fmt.Errorf("failed to save manifest for %s: %w", orderID, err)
	}

	if err := w.audit.Append(ctx, folder.ID, orderID, oldStatus, status, note); err != nil {
		return Transition{}, err
	}

	log.Printf("Status updated: %s (%s → %s)", orderID, oldStatus, status)
	return Transition{OrderID: orderID, OldStatus: oldStatus, NewStatus: status}, nil
}

// BulkSetStatus applies SetStatus to each order independently; one
// failure never aborts the batch.
func (w *Workflow) BulkSetStatus(ctx context.Context, orderIDs []string, newStatus, note string) BulkResult {
	result := BulkResult{
		Updated: []Transition{},
		Failed:  []BulkFailure{},
	}

	for _, orderID := range orderIDs {
		transition, err := w.SetStatus(ctx, orderID, newStatus, note)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{OrderID: orderID, Error: err.Error()})
			continue
		}
		result.Updated = append(result.Updated, transition)
	}

	return result
}

func (w *Workflow) loadManifest(ctx context.Context, fileID string) (*models.OrderManifest, error) {
	data, err := w.remote.Download(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var manifest models.OrderManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("malformed manifest: %w", err)
	}
	return &manifest, nil
}

func (w *Workflow) saveManifest(ctx context.Context, fileID string, manifest *models.OrderManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return w.remote.UpdateFile(ctx, fileID, manifestMimeType, bytes.NewReader(data))
}

func (w *Workflow) indexed(orderID string) (storage.Folder, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.index[orderID]
	return f, ok
}

func (w *Workflow) remember(orderID string, f storage.Folder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.index[orderID] = f
}
