package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDir = ".meta"

// LocalStorage implements Storage on the local filesystem:
// <base>/<user>/<id8>_<name> plus <base>/<user>/.meta/<id>.json.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

var _ Storage = (*LocalStorage)(nil)

func (s *LocalStorage) Upload(ctx context.Context, userID uuid.UUID, kind Kind, filename, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileID := uuid.New()
	userDir := s.userDir(userID)
	if err := os.MkdirAll(filepath.Join(userDir, metaDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	path := filepath.Join(userDir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Name:        filename,
		Kind:        kind,
		Size:        size,
		ContentType: contentType,
		Path:        stored,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.writeMeta(userID, info); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return info, nil
}

func (s *LocalStorage) Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.readMeta(userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.userDir(userID), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

func (s *LocalStorage) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	info, err := s.readMeta(userID, fileID)
	if err != nil {
		return err
	}
	return s.remove(userID, info)
}

// List returns the user's files, newest first.
func (s *LocalStorage) List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error) {
	files, err := s.scan(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, nil
}

func (s *LocalStorage) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	users, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read storage directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range users {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		userID, err := uuid.Parse(entry.Name())
		if !entry.IsDir() || err != nil {
			continue
		}

		files, err := s.scan(userID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, info := range files {
			if !info.CreatedAt.Before(cutoff) {
				continue
			}
			if err := s.remove(userID, info); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}

func (s *LocalStorage) userDir(userID uuid.UUID) string {
	return filepath.Join(s.basePath, userID.String())
}

func (s *LocalStorage) metaPath(userID, fileID uuid.UUID) string {
	return filepath.Join(s.userDir(userID), metaDir, fileID.String()+".json")
}

func (s *LocalStorage) scan(userID uuid.UUID) ([]*FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.userDir(userID), metaDir))
	if errors.Is(err, fs.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if entry.IsDir() || err != nil {
			continue
		}
		info, err := s.readMeta(userID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	return files, nil
}

func (s *LocalStorage) remove(userID uuid.UUID, info *FileInfo) error {
	if err := os.Remove(filepath.Join(s.userDir(userID), info.Path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(userID, info.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) readMeta(userID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(userID, fileID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) writeMeta(userID uuid.UUID, info *FileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(userID, info.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

func sanitizeFilename(name string) string {
	name = filenameReplacer.Replace(strings.TrimSpace(name))
	if name == "" {
		return "upload"
	}
	return name
}
