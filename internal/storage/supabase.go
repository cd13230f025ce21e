package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	storagego "github.com/supabase-community/storage-go"
)

// Folders in Supabase Storage are implicit prefixes; creating one means
// uploading a placeholder object, which is also how the Supabase
// dashboard does it.
const placeholderName = ".emptyFolderPlaceholder"

// Supabase is a Remote backed by a Supabase Storage bucket. Ids are
// object paths relative to the bucket root, so folder creation is
// naturally idempotent: creating the same (name, parent) twice yields
// the same id and never a duplicate.
type Supabase struct {
	client *storagego.Client
	bucket string
}

func NewSupabase(projectURL, serviceKey, bucket string) *Supabase {
	baseURL := strings.TrimSuffix(projectURL, "/")
	client := storagego.NewClient(baseURL+"/storage/v1", serviceKey, nil)
	return &Supabase{client: client, bucket: bucket}
}

func (s *Supabase) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	folderPath := path.Join(parentID, name)
	contentType := "application/octet-stream"
	upsert := true

	_, err := s.client.UploadFile(s.bucket, path.Join(folderPath, placeholderName),
		bytes.NewReader(nil), storagego.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", folderPath, err)
	}
	return folderPath, nil
}

func (s *Supabase) ListFolders(_ context.Context, parentID string) ([]Folder, error) {
	entries, err := s.list(parentID)
	if err != nil {
		return nil, err
	}

	var out []Folder
	for _, e := range entries {
		// Supabase returns folder prefixes as entries without an object id.
		if e.Id == "" {
			out = append(out, Folder{ID: path.Join(parentID, e.Name), Name: e.Name, ParentID: parentID})
		}
	}
	return out, nil
}

func (s *Supabase) FindFile(_ context.Context, name, parentID string) (*File, error) {
	entries, err := s.list(parentID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Id != "" && e.Name == name {
			return &File{ID: path.Join(parentID, e.Name), Name: e.Name}, nil
		}
	}
	return nil, fmt.Errorf("file %q under %q: %w", name, parentID, ErrNotFound)
}

func (s *Supabase) ListFiles(_ context.Context, parentID string) ([]File, error) {
	entries, err := s.list(parentID)
	if err != nil {
		return nil, err
	}

	var out []File
	for _, e := range entries {
		if e.Id != "" && e.Name != placeholderName {
			out = append(out, File{ID: path.Join(parentID, e.Name), Name: e.Name})
		}
	}
	return out, nil
}

func (s *Supabase) CreateFile(_ context.Context, name, mimeType, parentID string, r io.Reader) (string, error) {
	filePath := path.Join(parentID, name)
	_, err := s.client.UploadFile(s.bucket, filePath, r, storagego.FileOptions{
		ContentType: &mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", filePath, err)
	}
	return filePath, nil
}

func (s *Supabase) UpdateFile(_ context.Context, fileID, mimeType string, r io.Reader) error {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, fileID, r, storagego.FileOptions{
		ContentType: &mimeType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to update file %q: %w", fileID, err)
	}
	return nil
}

func (s *Supabase) Download(_ context.Context, fileID string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %q: %w", fileID, err)
	}
	return data, nil
}

func (s *Supabase) list(parentID string) ([]storagego.FileObject, error) {
	entries, err := s.client.ListFiles(s.bucket, parentID, storagego.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", parentID, err)
	}
	return entries, nil
}
