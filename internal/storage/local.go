package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
	"jobsnap/pkg/utils"
)

// LocalStore writes artifacts under <base>/<kind-root>/<company>/<YYYY-MM-DD>/
type LocalStore struct {
	baseDir string
	logger  types.Logger
}

// NewLocalStore creates a filesystem-backed store rooted at the configured base directory
func NewLocalStore(cfg *config.Config) (*LocalStore, error) {
	if cfg.Storage.BaseDir == "" {
		return nil, fmt.Errorf("storage base directory is required")
	}
	return &LocalStore{
		baseDir: cfg.Storage.BaseDir,
		logger:  logging.GetGlobalLogger(),
	}, nil
}

// SaveHTML persists rendered page HTML
func (s *LocalStore) SaveHTML(ctx context.Context, content string, company, jobID, title string, date time.Time) (string, error) {
	return s.write([]byte(content), company, jobID, title, date, KindHTML)
}

// SaveBinary persists a binary artifact such as a screenshot or PDF
func (s *LocalStore) SaveBinary(ctx context.Context, data []byte, company, jobID, title string, date time.Time, kind Kind) (string, error) {
	return s.write(data, company, jobID, title, date, kind)
}

func (s *LocalStore) write(data []byte, company, jobID, title string, date time.Time, kind Kind) (string, error) {
	safeCompany := utils.SanitizeFileToken(company)
	if safeCompany == "" {
		safeCompany = "unknown"
	}

	dir := filepath.Join(s.baseDir, string(kind), safeCompany, DateBucket(date))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	path := filepath.Join(dir, BuildFilename(jobID, title, time.Now(), kind))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s artifact: %w", kind, err)
	}

	s.logger.Debug("Artifact saved", map[string]interface{}{
		"kind":   string(kind),
		"path":   path,
		"job_id": jobID,
		"bytes":  len(data),
	})
	return path, nil
}
