package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Memory is an in-process Remote used in development mode and in tests.
// Like Google Drive it tolerates duplicate folder names under the same
// parent, so resolver race behavior can be exercised against it.
type Memory struct {
	mu      sync.Mutex
	seq     int
	folders map[string]*Folder
	files   map[string]*memoryFile
}

type memoryFile struct {
	id       string
	name     string
	parentID string
	mimeType string
	data     []byte
}

func NewMemory() *Memory {
	return &Memory{
		folders: make(map[string]*Folder),
		files:   make(map[string]*memoryFile),
	}
}

func (m *Memory) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("fld_%04d", m.seq)
	m.folders[id] = &Folder{ID: id, Name: name, ParentID: parentID}
	return id, nil
}

func (m *Memory) ListFolders(_ context.Context, parentID string) ([]Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Folder
	for _, f := range m.folders {
		if f.ParentID == parentID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) FindFile(_ context.Context, name, parentID string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		if f.parentID == parentID && f.name == name {
			return &File{ID: f.id, Name: f.name}, nil
		}
	}
	return nil, fmt.Errorf("find %q in %q: %w", name, parentID, ErrNotFound)
}

func (m *Memory) ListFiles(_ context.Context, parentID string) ([]File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []File
	for _, f := range m.files {
		if f.parentID == parentID {
			out = append(out, File{ID: f.id, Name: f.name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateFile(_ context.Context, name, mimeType, parentID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("fil_%04d", m.seq)
	m.files[id] = &memoryFile{id: id, name: name, parentID: parentID, mimeType: mimeType, data: data}
	return id, nil
}

func (m *Memory) UpdateFile(_ context.Context, fileID, mimeType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fileID]
	if !ok {
		return fmt.Errorf("update %q: %w", fileID, ErrNotFound)
	}
	f.mimeType = mimeType
	f.data = data
	return nil
}

func (m *Memory) Download(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fileID]
	if !ok {
		return nil, fmt.Errorf("download %q: %w", fileID, ErrNotFound)
	}
	return bytes.Clone(f.data), nil
}
