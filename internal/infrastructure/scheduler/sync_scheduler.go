package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncKind selects which marketplace feed a job pulls.
type SyncKind string

const (
	SyncKindOrders    SyncKind = "ORDERS"
	SyncKindInquiries SyncKind = "INQUIRIES"
)

// SyncJobStatus represents the status of a background sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob represents one scheduled sync run for an owner
type SyncJob struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Kind        SyncKind
	Status      SyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Run results, filled by the executor
	CredentialCount int
	FetchedCount    int
	UpsertedCount   int
	WarningCount    int
}

// NewSyncJob creates a new pending sync job
func NewSyncJob(ownerID uuid.UUID, kind SyncKind) *SyncJob {
	return &SyncJob{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Kind:    kind,
		Status:  SyncJobStatusPending,
	}
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records run counts and derives the final status. A run with
// warnings but at least one upserted record is partial, not failed.
func (j *SyncJob) Complete(credentialCount, fetchedCount, upsertedCount, warningCount int) {
	now := time.Now()
	j.CredentialCount = credentialCount
	j.FetchedCount = fetchedCount
	j.UpsertedCount = upsertedCount
	j.WarningCount = warningCount
	j.CompletedAt = &now

	switch {
	case warningCount == 0:
		j.Status = SyncJobStatusSuccess
	case upsertedCount > 0:
		j.Status = SyncJobStatusPartial
	default:
		j.Status = SyncJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// SyncExecutor executes sync jobs against the marketplace services
type SyncExecutor interface {
	Execute(ctx context.Context, job *SyncJob) error
}

// SyncSchedulerConfig holds configuration for the background sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Workers is the number of concurrent job workers
	Workers int
	// JobTimeout is the maximum time a single job can run
	JobTimeout time.Duration
	// QueueSize is the job queue capacity
	QueueSize int
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:    true,
		Workers:    3,
		JobTimeout: 10 * time.Minute,
		QueueSize:  100,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncScheduler runs marketplace sync jobs on a bounded worker pool
type SyncScheduler struct {
	config   SyncSchedulerConfig
	executor SyncExecutor
	logger   *zap.Logger

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, executor SyncExecutor, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		jobs:       make(chan *SyncJob, config.QueueSize),
		history:    make([]*SyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the worker pool
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *SyncScheduler) SubmitJob(job *SyncJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("owner_id", job.OwnerID.String()),
			zap.String("kind", string(job.Kind)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleSync creates and submits a sync job for an owner
func (s *SyncScheduler) ScheduleSync(ownerID uuid.UUID, kind SyncKind) error {
	return s.SubmitJob(NewSyncJob(ownerID, kind))
}

// worker processes jobs from the queue
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Sync job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	job.Start()
	s.logger.Info("Processing sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("owner_id", job.OwnerID.String()),
		zap.String("kind", string(job.Kind)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		job.Fail(err.Error())
		s.logger.Error("Sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("owner_id", job.OwnerID.String()),
			zap.String("kind", string(job.Kind)),
			zap.Error(err),
		)
		s.addToHistory(job)
		return
	}

	s.logger.Info("Sync job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("owner_id", job.OwnerID.String()),
		zap.String("kind", string(job.Kind)),
		zap.String("status", string(job.Status)),
		zap.Int("credentials", job.CredentialCount),
		zap.Int("fetched", job.FetchedCount),
		zap.Int("upserted", job.UpsertedCount),
		zap.Int("warnings", job.WarningCount),
	)
	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)

	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *SyncScheduler) GetJobHistory(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByOwner returns job history for a specific owner
func (s *SyncScheduler) GetJobHistoryByOwner(ownerID uuid.UUID, limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*SyncJob, 0, limit)
	for _, job := range s.history {
		if job.OwnerID == ownerID {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}
