package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Drive is the production Remote backed by Google Drive. Folder ids are
// Drive file ids; the empty parent id aliases the Drive root.
type Drive struct {
	svc *drive.Service
}

func NewDrive(ctx context.Context, opts ...option.ClientOption) (*Drive, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Drive{svc: svc}, nil
}

func (d *Drive) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	f, err := d.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, driveErr(err))
	}
	return f.Id, nil
}

func (d *Drive) ListFolders(ctx context.Context, parentID string) ([]Folder, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false",
		parentAlias(parentID), folderMimeType)

	var out []Folder
	pageToken := ""
	for {
		call := d.svc.Files.List().Q(q).Fields("nextPageToken, files(id, name)").
			OrderBy("name").Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list folders under %q: %w", parentID, driveErr(err))
		}
		for _, f := range res.Files {
			out = append(out, Folder{ID: f.Id, Name: f.Name, ParentID: parentID})
		}
		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}

func (d *Drive) FindFile(ctx context.Context, name, parentID string) (*File, error) {
	q := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false",
		parentAlias(parentID), escapeQuery(name))

	res, err := d.svc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to find file %q: %w", name, driveErr(err))
	}
	if len(res.Files) == 0 {
		return nil, fmt.Errorf("file %q under %q: %w", name, parentID, ErrNotFound)
	}
	return &File{ID: res.Files[0].Id, Name: res.Files[0].Name}, nil
}

func (d *Drive) ListFiles(ctx context.Context, parentID string) ([]File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType!='%s' and trashed=false",
		parentAlias(parentID), folderMimeType)

	res, err := d.svc.Files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %q: %w", parentID, driveErr(err))
	}
	out := make([]File, 0, len(res.Files))
	for _, f := range res.Files {
		out = append(out, File{ID: f.Id, Name: f.Name})
	}
	return out, nil
}

func (d *Drive) CreateFile(ctx context.Context, name, mimeType, parentID string, r io.Reader) (string, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentAlias(parentID)},
	}

	f, err := d.svc.Files.Create(meta).
		Media(r, googleapi.ContentType(mimeType)).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", name, driveErr(err))
	}
	return f.Id, nil
}

func (d *Drive) UpdateFile(ctx context.Context, fileID, mimeType string, r io.Reader) error {
	_, err := d.svc.Files.Update(fileID, &drive.File{}).
		Media(r, googleapi.ContentType(mimeType)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update file %q: %w", fileID, driveErr(err))
	}
	return nil
}

func (d *Drive) Download(ctx context.Context, fileID string) ([]byte, error) {
	res, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %q: %w", fileID, driveErr(err))
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", fileID, err)
	}
	return data, nil
}

// parentAlias maps the empty parent id onto Drive's root alias.
func parentAlias(parentID string) string {
	if parentID == "" {
		return "root"
	}
	return parentID
}

// escapeQuery escapes single quotes and backslashes inside a Drive
// query string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func driveErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return fmt.Errorf("%w (%v)", ErrNotFound, err)
	}
	return err
}
