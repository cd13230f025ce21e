package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"memorybook-backend/internal/folders"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/orders"
	"memorybook-backend/internal/storage"
	"memorybook-backend/internal/tokens"
)

// GeneralPhotosField is the multipart field carrying the free-form
// photo sequence; every other file field is a dedicated special slot.
const GeneralPhotosField = "12_Genel_Photos"

const (
	specialFolderName = "special"
	generalFolderName = "general"
	outputsFolderName = "outputs"
	logsFolderName    = "logs"

	detailsFileName = "bilgiler.txt"
)

// TokenRejectedError reports why a submission's capability token was
// refused; Reason is one of the tokens package reason codes.
type TokenRejectedError struct {
	Reason tokens.Reason
}

func (e *TokenRejectedError) Error() string {
	return "token rejected: " + string(e.Reason)
}

// SubmittedFile is one uploaded file of a submission.
type SubmittedFile struct {
	Field    string
	Name     string
	MimeType string
	Content  io.Reader
}

// Submission is everything a customer posted through the order form.
type Submission struct {
	Token        string
	CustomerName string
	Fields       map[string]string
	Files        []SubmittedFile
}

// OrderService owns the submission path: it consumes the capability
// token exactly once, materializes the order's folder hierarchy in the
// remote store, uploads the artifacts, and writes the manifest.
type OrderService struct {
	tokenManager *tokens.Manager
	remote       storage.Remote
	resolver     *folders.Resolver
	now          func() time.Time
}

func NewOrderService(tokenManager *tokens.Manager, remote storage.Remote, resolver *folders.Resolver) *OrderService {
	return &OrderService{
		tokenManager: tokenManager,
		remote:       remote,
		resolver:     resolver,
		now:          time.Now,
	}
}

// Submit processes one order submission and returns the new order id.
// When the submission carries a token, the token is validated and then
// consumed before any remote folder is touched, so a second submission
// with the same token can never produce a second order.
func (s *OrderService) Submit(ctx context.Context, sub Submission) (string, error) {
	if strings.TrimSpace(sub.CustomerName) == "" {
		return "", errors.New("customer name is required")
	}

	now := s.now()
	orderID := orders.NewOrderID(now)
	customerSlug := orders.CustomerSlug(sub.CustomerName)

	if sub.Token != "" {
		validation, err := s.tokenManager.Validate(sub.Token)
		if err != nil {
			return "", err
		}
		if !validation.Valid {
			return "", &TokenRejectedError{Reason: validation.Reason}
		}

		locked, err := s.tokenManager.MarkUsed(sub.Token, orderID)
		if err != nil {
			return "", err
		}
		if !locked {
			return "", &TokenRejectedError{Reason: tokens.ReasonNotFound}
		}
		log.Printf("Token locked: %s... for order %s", sub.Token[:min(16, len(sub.Token))], orderID)
	}

	hierarchy, err := s.resolver.ResolveOrderHierarchy(ctx, now)
	if err != nil {
		return "", err
	}

	folderName := orders.FolderName(orderID, customerSlug)
	mainID, err := s.resolver.Create(ctx, folderName, hierarchy.MonthID)
	if err != nil {
		return "", fmt.Errorf("failed to create order folder: %w", err)
	}
	log.Printf("New order: %s - %s (%s/%s)", orderID, sub.CustomerName, now.Format("2006/01"), folderName)

	generalID, err := s.resolver.Create(ctx, generalFolderName, mainID)
	if err != nil {
		return "", fmt.Errorf("failed to create general folder: %w", err)
	}
	specialID, err := s.resolver.Create(ctx, specialFolderName, mainID)
	if err != nil {
		return "", fmt.Errorf("failed to create special folder: %w", err)
	}
	if _, err := s.resolver.Create(ctx, outputsFolderName, mainID); err != nil {
		return "", fmt.Errorf("failed to create outputs folder: %w", err)
	}
	if _, err := s.resolver.Create(ctx, logsFolderName, mainID); err != nil {
		return "", fmt.Errorf("failed to create logs folder: %w", err)
	}

	files := models.OrderFiles{
		Special: map[string]string{},
		General: []string{},
	}
	for _, f := range sub.Files {
		if f.Field == GeneralPhotosField {
			targetName := fmt.Sprintf("Foto_%d_%s", now.UnixMilli(), f.Name)
			if _, err := s.remote.CreateFile(ctx, targetName, f.MimeType, generalID, f.Content); err != nil {
				return "", fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			files.General = append(files.General, targetName)
		} else {
			targetName := f.Field + path.Ext(f.Name)
			if _, err := s.remote.CreateFile(ctx, targetName, f.MimeType, specialID, f.Content); err != nil {
				return "", fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			files.Special[f.Field] = targetName
		}
	}

	manifest := models.OrderManifest{
		SchemaVersion: "1.0",
		OrderID:       orderID,
		CustomerName:  sub.CustomerName,
		CustomerSlug:  customerSlug,
		CreatedAt:     now,
		Fields:        map[string]string{},
		Files:         files,
		Status:        models.StatusSubmitted,
	}
	for key, value := range sub.Fields {
		if strings.TrimSpace(value) != "" {
			manifest.Fields[key] = value
		}
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if _, err := s.remote.CreateFile(ctx, orders.ManifestFileName, "application/json", mainID, strings.NewReader(string(manifestJSON))); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	var details strings.Builder
	for key, value := range manifest.Fields {
		details.WriteString(key + ": " + value + "\r\n")
	}
	if _, err := s.remote.CreateFile(ctx, detailsFileName, "text/plain", mainID, strings.NewReader(details.String())); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", detailsFileName, err)
	}

	return orderID, nil
}

// ListOrders walks the whole year→month→order hierarchy and summarizes
// every order that has a readable manifest, newest first. Folders
// without a manifest are skipped, not fatal.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	rootID, err := s.resolver.Root(ctx)
	if err != nil {
		return nil, err
	}

	summaries := []models.OrderSummary{}

	years, err := s.remote.ListFolders(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to list year folders: %w", err)
	}
	for _, year := range years {
		months, err := s.remote.ListFolders(ctx, year.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list month folders: %w", err)
		}
		for _, month := range months {
			orderFolders, err := s.remote.ListFolders(ctx, month.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list order folders: %w", err)
			}
			for _, folder := range orderFolders {
				summary, err := s.summarize(ctx, folder)
				if err != nil {
					log.Printf("Skipping order folder %s: %v", folder.Name, err)
					continue
				}
				summaries = append(summaries, summary)
			}
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *OrderService) summarize(ctx context.Context, folder storage.Folder) (models.OrderSummary, error) {
	file, err := s.remote.FindFile(ctx, orders.ManifestFileName, folder.ID)
	if err != nil {
		return models.OrderSummary{}, err
	}

	data, err := s.remote.Download(ctx, file.ID)
	if err != nil {
		return models.OrderSummary{}, err
	}

	var manifest models.OrderManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return models.OrderSummary{}, fmt.Errorf("malformed manifest: %w", err)
	}

	status := manifest.Status
	if status == "" {
		status = models.StatusSubmitted
	}

	counts := map[string]int{}
	subfolders, err := s.remote.ListFolders(ctx, folder.ID)
	if err != nil {
		return models.OrderSummary{}, err
	}
	for _, sub := range subfolders {
		files, err := s.remote.ListFiles(ctx, sub.ID)
		if err != nil {
			return models.OrderSummary{}, err
		}
		counts[sub.Name] = len(files)
	}

	return models.OrderSummary{
		OrderID:      manifest.OrderID,
		CustomerName: manifest.CustomerName,
		CreatedAt:    manifest.CreatedAt,
		Status:       status,
		FolderName:   folder.Name,
		FolderID:     folder.ID,
		FileCounts:   counts,
		Fields:       manifest.Fields,
	}, nil
}
