package push

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Replay strategy and cooldown policy
// ---------------------------------------------------------------------------

// ReplayStrategy selects which entries of a failure streak are replayed.
type ReplayStrategy string

const (
	// ReplayLatest replays only the most recent failed entry per market.
	ReplayLatest ReplayStrategy = "latest"
	// ReplayAll replays every entry of the trailing failure streak.
	ReplayAll ReplayStrategy = "all"
)

// ErrUnknownReplayStrategy indicates a strategy outside {latest, all}.
var ErrUnknownReplayStrategy = errors.New("push: unknown replay strategy")

// ParseReplayStrategy parses a strategy string; empty defaults to latest.
func ParseReplayStrategy(s string) (ReplayStrategy, error) {
	switch ReplayStrategy(s) {
	case ReplayLatest, "":
		return ReplayLatest, nil
	case ReplayAll:
		return ReplayAll, nil
	default:
		return "", ErrUnknownReplayStrategy
	}
}

// maxCooldown caps the exponential cooldown growth.
const maxCooldown = 24 * time.Hour

// cooldownBaseSeconds maps a failure category to its cooldown base. RATE_LIMIT
// and SERVER share the NETWORK base as transient infrastructure failures;
// anything unlisted uses the UNKNOWN base.
var cooldownBaseSeconds = map[integration.FailureCategory]int{
	integration.FailureAuth:             1800,
	integration.FailureCategoryMismatch: 1800,
	integration.FailureConfig:           2700,
	integration.FailureImage:            600,
	integration.FailurePrice:            600,
	integration.FailureNetwork:          120,
	integration.FailureRateLimit:        120,
	integration.FailureServer:           120,
	integration.FailureUnknown:          300,
}

// cooldownFor computes the cooldown before a streak may be replayed:
// base*2^(streak-1), capped at 24h.
func cooldownFor(category integration.FailureCategory, streakLength int) time.Duration {
	base, ok := cooldownBaseSeconds[category]
	if !ok {
		base = cooldownBaseSeconds[integration.FailureUnknown]
	}
	cooldown := time.Duration(base) * time.Second
	for i := 1; i < streakLength; i++ {
		cooldown *= 2
		if cooldown >= maxCooldown {
			return maxCooldown
		}
	}
	if cooldown > maxCooldown {
		return maxCooldown
	}
	return cooldown
}

// ---------------------------------------------------------------------------
// Replay report
// ---------------------------------------------------------------------------

// MarketReplay is the replay outcome for one marketplace's failure streak.
type MarketReplay struct {
	// Market is the marketplace the streak belongs to.
	Market integration.MarketCode `json:"market"`
	// StreakLength is the consecutive failure count behind the cooldown.
	StreakLength int `json:"streak_length"`
	// Cooldown is the computed cooldown for the streak.
	Cooldown time.Duration `json:"cooldown"`
	// Outcome is "replayed", "cooldown_skipped", or "no_payload".
	Outcome string `json:"outcome"`
	// ReadyAt is when the streak leaves cooldown; set when skipped.
	ReadyAt time.Time `json:"ready_at,omitempty"`
	// Subjects are the subject ids selected by the strategy.
	Subjects []string `json:"subjects"`
	// Result holds the re-push outcome when the streak was replayed.
	Result *BatchResult `json:"result,omitempty"`
}

// ReplayReport summarises one retry-queue invocation.
type ReplayReport struct {
	// Strategy is the strategy the replay ran with.
	Strategy ReplayStrategy `json:"strategy"`
	// Replayed counts markets that were re-attempted.
	Replayed int `json:"replayed"`
	// CooldownSkipped counts markets still inside cooldown.
	CooldownSkipped int `json:"cooldown_skipped"`
	// Markets holds the per-market outcomes.
	Markets []MarketReplay `json:"markets"`
}

const (
	replayOutcomeReplayed = "replayed"
	replayOutcomeCooldown = "cooldown_skipped"
	replayOutcomeNoRows   = "no_payload"
)

// ---------------------------------------------------------------------------
// RetryQueueService
// ---------------------------------------------------------------------------

// RetryQueueService replays previously failed pushes. Audit entries carry no
// payload, so the caller re-supplies the original rows; the service selects
// which of them are due via the per-market failure streaks and their
// category cooldowns. Cooldown skips are reported, never persisted.
type RetryQueueService struct {
	auditLog integration.PushAuditLogRepository
	tracking *TrackingPushService
	replies  *ReplyPushService
	logger   *zap.Logger

	now func() time.Time
}

// NewRetryQueueService creates a new RetryQueueService
func NewRetryQueueService(
	auditLog integration.PushAuditLogRepository,
	tracking *TrackingPushService,
	replies *ReplyPushService,
	logger *zap.Logger,
) *RetryQueueService {
	return &RetryQueueService{
		auditLog: auditLog,
		tracking: tracking,
		replies:  replies,
		logger:   logger,
		now:      time.Now,
	}
}

// ReplayTracking replays failed tracking pushes from the supplied rows.
func (s *RetryQueueService) ReplayTracking(ctx context.Context, ownerID uuid.UUID, strategy ReplayStrategy, rows []TrackingRow) (*ReplayReport, error) {
	bySubject := make(map[string]TrackingRow, len(rows))
	for _, row := range rows {
		if _, ok := bySubject[row.MarketOrderID]; !ok {
			bySubject[row.MarketOrderID] = row
		}
	}

	return s.replay(ctx, ownerID, integration.PushKindTracking, strategy,
		func(subjectID string) bool {
			_, ok := bySubject[subjectID]
			return ok
		},
		func(market integration.MarketCode, subjects []string) (*BatchResult, error) {
			selected := make([]TrackingRow, 0, len(subjects))
			for _, subjectID := range subjects {
				selected = append(selected, bySubject[subjectID])
			}
			return s.tracking.PushBatch(ctx, ownerID, market, selected)
		})
}

// ReplayReplies replays failed reply pushes from the supplied rows.
func (s *RetryQueueService) ReplayReplies(ctx context.Context, ownerID uuid.UUID, strategy ReplayStrategy, rows []ReplyRow) (*ReplayReport, error) {
	bySubject := make(map[string]ReplyRow, len(rows))
	for _, row := range rows {
		if _, ok := bySubject[row.InquiryID]; !ok {
			bySubject[row.InquiryID] = row
		}
	}

	return s.replay(ctx, ownerID, integration.PushKindReply, strategy,
		func(subjectID string) bool {
			_, ok := bySubject[subjectID]
			return ok
		},
		func(market integration.MarketCode, subjects []string) (*BatchResult, error) {
			selected := make([]ReplyRow, 0, len(subjects))
			for _, subjectID := range subjects {
				selected = append(selected, bySubject[subjectID])
			}
			return s.replies.PushReplies(ctx, ownerID, market, selected)
		})
}

func (s *RetryQueueService) replay(
	ctx context.Context,
	ownerID uuid.UUID,
	kind integration.PushKind,
	strategy ReplayStrategy,
	hasRow func(subjectID string) bool,
	push func(market integration.MarketCode, subjects []string) (*BatchResult, error),
) (*ReplayReport, error) {
	if strategy == "" {
		strategy = ReplayLatest
	}

	streaks, err := s.auditLog.FailureStreaks(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{Strategy: strategy}
	now := s.now()

	for i := range streaks {
		streak := &streaks[i]
		latest := streak.Latest()
		if latest == nil {
			continue
		}

		category := integration.FailureUnknown
		if latest.FailureCategory != nil {
			category = *latest.FailureCategory
		}
		cooldown := cooldownFor(category, streak.Length())

		entry := MarketReplay{
			Market:       streak.Market,
			StreakLength: streak.Length(),
			Cooldown:     cooldown,
			Subjects:     s.selectSubjects(streak, strategy, hasRow),
		}

		readyAt := latest.CreatedAt.Add(cooldown)
		switch {
		case now.Before(readyAt):
			entry.Outcome = replayOutcomeCooldown
			entry.ReadyAt = readyAt
			report.CooldownSkipped++
		case len(entry.Subjects) == 0:
			entry.Outcome = replayOutcomeNoRows
		default:
			result, pushErr := push(streak.Market, entry.Subjects)
			if pushErr != nil {
				return nil, pushErr
			}
			entry.Outcome = replayOutcomeReplayed
			entry.Result = result
			report.Replayed++
		}
		report.Markets = append(report.Markets, entry)
	}

	s.logger.Info("retry queue replay finished",
		zap.String("owner_id", ownerID.String()),
		zap.String("kind", string(kind)),
		zap.String("strategy", string(strategy)),
		zap.Int("replayed", report.Replayed),
		zap.Int("cooldown_skipped", report.CooldownSkipped),
	)
	return report, nil
}

// selectSubjects picks the streak entries the strategy targets, keeping only
// subjects the caller supplied a payload for. Duplicate subjects within a
// streak collapse to one replay.
func (s *RetryQueueService) selectSubjects(streak *integration.FailureStreak, strategy ReplayStrategy, hasRow func(string) bool) []string {
	entries := streak.Entries
	if strategy == ReplayLatest && len(entries) > 1 {
		entries = entries[:1]
	}

	seen := make(map[string]bool, len(entries))
	var subjects []string
	for _, entry := range entries {
		if seen[entry.SubjectID] || !hasRow(entry.SubjectID) {
			continue
		}
		seen[entry.SubjectID] = true
		subjects = append(subjects, entry.SubjectID)
	}
	return subjects
}
