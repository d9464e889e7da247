package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	rawDirName     = "raw"
	normalizedName = "scripture.json"
)

// DiskStore keeps artifacts under a single base directory:
//
//	<base>/raw/<id>.json   one immutable file per accepted submission
//	<base>/scripture.json  the current normalized document
type DiskStore struct {
	base   string
	logger *zap.Logger
}

// NewDiskStore creates the artifact directories under base.
func NewDiskStore(base string, logger *zap.Logger) (*DiskStore, error) {
	if base == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(filepath.Join(base, rawDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &DiskStore{base: base, logger: logger}, nil
}

// WriteRaw archives data under the given ingestion ID. The file is created
// exclusively, so an ID collision surfaces as an error instead of silently
// rewriting history.
func (s *DiskStore) WriteRaw(id string, data []byte) (string, error) {
	if id == "" {
		return "", fmt.Errorf("raw artifact id is required")
	}
	path := filepath.Join(s.base, rawDirName, id+".json")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create raw artifact: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write raw artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close raw artifact: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("Raw artifact archived",
			zap.String("path", path),
			zap.Int("bytes", len(data)))
	}
	return path, nil
}

// WriteNormalized writes data to a temporary file and renames it over the
// fixed normalized path, so the document is replaced atomically.
func (s *DiskStore) WriteNormalized(data []byte) (string, error) {
	path := s.NormalizedPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write normalized artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to replace normalized artifact: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("Normalized artifact replaced",
			zap.String("path", path),
			zap.Int("bytes", len(data)))
	}
	return path, nil
}

// ReadNormalized returns the current normalized document.
func (s *DiskStore) ReadNormalized() ([]byte, error) {
	data, err := os.ReadFile(s.NormalizedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read normalized artifact: %w", err)
	}
	return data, nil
}

// NormalizedPath returns the fixed location of the normalized document.
func (s *DiskStore) NormalizedPath() string {
	return filepath.Join(s.base, normalizedName)
}

// RawDir returns the directory holding the raw archive.
func (s *DiskStore) RawDir() string {
	return filepath.Join(s.base, rawDirName)
}

// UsageBytes returns the total size of all artifacts under the base
// directory. Missing paths contribute zero.
func (s *DiskStore) UsageBytes() (int64, error) {
	var total int64
	err := filepath.Walk(s.base, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info != nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure artifact usage: %w", err)
	}
	return total, nil
}
