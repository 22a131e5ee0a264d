package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/skillquest/skillquest/internal/photos"
)

// MockPhotoStorage records uploads and deletions in memory
type MockPhotoStorage struct {
	mu      sync.Mutex
	next    int
	Added   []string
	Deleted []string

	AddErr    error
	DeleteErr error
}

// NewMockPhotoStorage creates a new mock photo storage
func NewMockPhotoStorage() *MockPhotoStorage {
	return &MockPhotoStorage{}
}

// AddPhoto drains body and returns a sequential public id
func (m *MockPhotoStorage) AddPhoto(ctx context.Context, name string, body io.Reader) (photos.PhotoResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AddErr != nil {
		return photos.PhotoResult{}, m.AddErr
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return photos.PhotoResult{}, err
	}

	m.next++
	id := fmt.Sprintf("photo-%d", m.next)
	m.Added = append(m.Added, id)
	return photos.PhotoResult{PublicID: id, URL: "/photos/" + id}, nil
}

// DeletePhoto records the deletion
func (m *MockPhotoStorage) DeletePhoto(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, publicID)
	return nil
}
