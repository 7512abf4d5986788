package backup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"grindvault/internal/config"
	"grindvault/internal/database"
	"grindvault/internal/github"
	"grindvault/internal/monitoring"
)

// Reason tags for backup triggers.
const (
	ReasonManualAPI = "MANUAL_API_TRIGGER"
	ReasonManualCLI = "MANUAL_CLI_TRIGGER"
)

// RemoteStore is the remote snapshot storage consumed by the service.
// Implemented by the GitHub contents client.
type RemoteStore interface {
	Upload(ctx context.Context, name string, data []byte) error
	ListSnapshots(ctx context.Context) ([]github.Content, error)
	Delete(ctx context.Context, file github.Content) error
}

// Service drives backup cycles and restore runs over the live store.
//
// RunCycle never returns an error: a backup cycle is fire-and-forget and
// must not crash its scheduler. Restore does the opposite and surfaces
// every failure to the caller.
type Service struct {
	logger    *zap.Logger
	questions database.QuestionRepository
	labels    database.LabelRepository
	remote    RemoteStore
	metrics   *monitoring.Metrics

	mu       sync.RWMutex
	enabled  bool
	maxFiles int

	now func() time.Time
}

// NewService creates a new backup service.
func NewService(
	logger *zap.Logger,
	cfg config.BackupConfig,
	questions database.QuestionRepository,
	labels database.LabelRepository,
	remote RemoteStore,
	metrics *monitoring.Metrics,
) *Service {
	return &Service{
		logger:    logger,
		questions: questions,
		labels:    labels,
		remote:    remote,
		metrics:   metrics,
		enabled:   cfg.Enabled,
		maxFiles:  cfg.MaxFiles,
		now:       time.Now,
	}
}

// ApplyConfig picks up backup settings from a reloaded configuration.
func (s *Service) ApplyConfig(cfg config.BackupConfig) {
	s.mu.Lock()
	s.enabled = cfg.Enabled
	s.maxFiles = cfg.MaxFiles
	s.mu.Unlock()

	s.logger.Info("Backup settings applied",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("max_files", cfg.MaxFiles),
	)
}

// Enabled reports whether backup cycles are administratively enabled.
func (s *Service) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *Service) retentionMax() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxFiles
}

// RunCycle performs one backup cycle. Every failure is logged and swallowed;
// there is no retry and no error return, one attempt per trigger.
func (s *Service) RunCycle(ctx context.Context, reason string) {
	if !s.Enabled() {
		s.logger.Debug("Backup skipped (disabled)", zap.String("reason", reason))
		return
	}

	start := time.Now()
	s.logger.Info("Backup started", zap.String("reason", reason))

	questions, err := s.questions.FindAll(ctx)
	if err != nil {
		s.failCycle(reason, start, err)
		return
	}

	data, err := EncodeSnapshot(questions)
	if err != nil {
		s.failCycle(reason, start, err)
		return
	}

	fileName := SnapshotFileName(s.now())
	s.logger.Info("Snapshot prepared",
		zap.String("file", fileName),
		zap.Int("questions", len(questions)),
		zap.Int("size_bytes", len(data)),
	)
	s.metrics.SetSnapshotSize(len(data))

	if err := s.remote.Upload(ctx, fileName, data); err != nil {
		// No retention cleanup after a failed upload: nothing new landed,
		// so deleting old snapshots could destroy the only good copies.
		s.failCycle(reason, start, err)
		return
	}

	if err := s.cleanupOldSnapshots(ctx); err != nil {
		s.failCycle(reason, start, err)
		return
	}

	duration := time.Since(start)
	s.logger.Info("Backup SUCCESS",
		zap.String("file", fileName),
		zap.Duration("duration", duration),
	)
	s.metrics.ObserveBackup("success", duration)
}

func (s *Service) failCycle(reason string, start time.Time, err error) {
	duration := time.Since(start)
	s.logger.Error("Backup FAILED",
		zap.String("reason", reason),
		zap.Duration("duration", duration),
		zap.Error(err),
	)
	s.metrics.ObserveBackup("failure", duration)
}

// cleanupOldSnapshots enforces the retention policy. A delete failure for
// one snapshot does not abort cleanup of the remaining ones.
func (s *Service) cleanupOldSnapshots(ctx context.Context) error {
	max := s.retentionMax()
	s.logger.Info("Cleanup start", zap.Int("max_snapshots", max))

	snapshots, err := s.remote.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	toDelete := SelectForDeletion(snapshots, max)
	if len(toDelete) == 0 {
		s.logger.Info("Cleanup skipped", zap.Int("existing", len(snapshots)))
		return nil
	}

	s.logger.Info("Deleting old snapshots", zap.Int("count", len(toDelete)))

	deleted := 0
	for _, file := range toDelete {
		if err := s.remote.Delete(ctx, file); err != nil {
			s.logger.Error("Failed to delete old snapshot",
				zap.String("file", file.Name),
				zap.Error(err),
			)
			continue
		}
		deleted++
	}
	s.metrics.AddSnapshotsDeleted(deleted)

	s.logger.Info("Cleanup finished", zap.Int("deleted", deleted))
	return nil
}
