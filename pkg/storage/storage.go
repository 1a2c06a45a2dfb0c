// Package storage archives uploaded documents per user.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// Kind records which upload path produced a file.
type Kind string

const (
	KindReceipt   Kind = "receipt"
	KindStatement Kind = "statement"
	KindAIReceipt Kind = "ai-receipt"
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // relative to the user directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	Upload(ctx context.Context, userID uuid.UUID, kind Kind, filename, contentType string, r io.Reader) (*FileInfo, error)
	Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)
	Delete(ctx context.Context, userID, fileID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)

	// PurgeBefore deletes every file, for all users, created before cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}
