package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SourceRestore tags the change event emitted after a restore.
const SourceRestore = "backup.restore"

// FilePrefix starts every backup file name.
const FilePrefix = "shopledger_backup"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Snapshot(ctx context.Context) (Document, error)
	Replace(ctx context.Context, doc Document) (Counts, error)
}

// ChangeNotifier is told after a restore replaced the ledger.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, source string)
}

// Service exports and restores the ledger.
type Service struct {
	repo     RepositoryPort
	notifier ChangeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, notifier ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Export returns every ledger row stamped with export metadata.
func (s *Service) Export(ctx context.Context) (Document, error) {
	doc, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Document{}, err
	}
	doc.Meta = Meta{ExportedAt: s.now(), Version: FormatVersion}
	return doc, nil
}

// Restore destructively replaces the ledger with doc in one transaction.
func (s *Service) Restore(ctx context.Context, doc Document) (Counts, error) {
	if err := doc.Check(); err != nil {
		return Counts{}, err
	}
	counts, err := s.repo.Replace(ctx, doc)
	if err != nil {
		return Counts{}, err
	}
	s.logger.Info("ledger restored",
		slog.Time("exported_at", doc.Meta.ExportedAt),
		slog.Int("products", counts.Products),
		slog.Int("sales", counts.Sales),
		slog.Int("payments", counts.Payments))
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, SourceRestore)
	}
	return counts, nil
}

// ExportToDir writes a new backup file into dir and returns its path.
func (s *Service) ExportToDir(ctx context.Context, dir string) (string, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.json", FilePrefix, doc.Meta.ExportedAt.Format("20060102T150405Z"), uuid.NewString()[:8])
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("backup: create file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, doc); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("backup: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("backup: finalize file: %w", err)
	}
	s.logger.Info("backup written", slog.String("path", path), slog.Int("sales", len(doc.Sales)))
	return path, nil
}

// RestoreFile decodes the backup at path and restores it.
func (s *Service) RestoreFile(ctx context.Context, path string) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Counts{}, fmt.Errorf("backup: open file: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return Counts{}, err
	}
	return s.Restore(ctx, doc)
}
