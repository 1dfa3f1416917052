package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupConfig controls the periodic ledger backup loop.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// BackupService periodically copies the booking ledger file aside. The
// ledger is a single JSON document, so a plain file copy is a consistent
// backup as long as it happens between atomic renames.
type BackupService struct {
	storePath string
	config    BackupConfig
	logger    *zerolog.Logger
}

func NewBackupService(storePath string, cfg BackupConfig, logger *zerolog.Logger) *BackupService {
	if cfg.IntervalHours <= 0 {
		cfg.IntervalHours = 24
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "backups"
	}
	return &BackupService{storePath: storePath, config: cfg, logger: logger}
}

// Start runs the backup loop until the context is cancelled.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("ledger backups disabled")
		return
	}
	s.logger.Info().Int("interval_hours", s.config.IntervalHours).Msg("ledger backup loop started")

	ticker := time.NewTicker(time.Duration(s.config.IntervalHours) * time.Hour)
	defer ticker.Stop()

	if err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("initial ledger backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PerformBackup(); err != nil {
				s.logger.Error().Err(err).Msg("ledger backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup copies the ledger into a timestamped file.
func (s *BackupService) PerformBackup() error {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	source, err := os.Open(s.storePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing booked yet, nothing to back up.
			return nil
		}
		return err
	}
	defer source.Close()

	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(s.config.StoragePath, fmt.Sprintf("bookings_%s.json", timestamp))

	destination, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return err
	}
	s.logger.Info().Str("path", backupPath).Msg("ledger backup completed")
	return nil
}

// CleanupOldBackups removes backups older than the retention window.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read backup directory for cleanup")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("deleting old ledger backup")
			os.Remove(filepath.Join(s.config.StoragePath, file.Name()))
		}
	}
}
