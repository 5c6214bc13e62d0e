package regionalsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/models"
	"github.com/seplag/artistalbum_backend/utils"
)

var tracer = otel.Tracer("github.com/seplag/artistalbum_backend/regionalsync")

// ErrSyncBusy is returned when a pass is requested while another pass
// is still running. The caller backs off; nothing is queued.
var ErrSyncBusy = errors.New("regional sync already running")

const (
	syncLockKey      = "regional-sync-lock"
	lastSyncCacheKey = "regional-sync-last-run"
	defaultInterval  = time.Hour
)

// PassSummary is what one completed pass reports back to its trigger.
type PassSummary struct {
	RunId          uint      `json:"run_id,omitempty"`
	TriggeredBy    string    `json:"triggered_by"`
	RecordsFetched int       `json:"records_fetched"`
	RecordsDropped int       `json:"records_dropped"`
	RowsCreated    int       `json:"rows_created"`
	RowsRetired    int       `json:"rows_retired"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Syncer reconciles the local regional mirror against the police feed.
// One instance owns the periodic loop; manual triggers share the same
// single-flight guard so at most one pass runs at a time.
type Syncer struct {
	logger   *logrus.Logger
	client   *feedClient
	interval time.Duration
	running  atomic.Bool
}

func NewSyncer(logger *logrus.Logger) *Syncer {
	interval := defaultInterval
	if v := strings.TrimSpace(os.Getenv("REGIONAL_SYNC_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		} else if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Minute
		}
	}
	return &Syncer{
		logger:   logger,
		client:   newFeedClientFromEnv(),
		interval: interval,
	}
}

// Start runs the periodic loop until ctx is cancelled. A tick that
// lands while the previous pass is still running is skipped, not
// queued.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.WithField("interval", s.interval.String()).Info("regional sync loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("regional sync loop stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx, models.SyncTriggeredInterval); err != nil {
				if errors.Is(err, ErrSyncBusy) {
					s.logger.Warn("regional sync tick skipped, previous pass still running")
					continue
				}
				config.LogError(s.logger, "regionalsync", "Start", "scheduled pass failed", nil, err)
			}
		}
	}
}

// RunOnce executes a single reconciliation pass. Returns ErrSyncBusy
// without doing anything when another pass holds the guard. A feed
// failure aborts the pass before any write is planned or applied.
func (s *Syncer) RunOnce(ctx context.Context, triggeredBy string) (*PassSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncBusy
	}
	defer s.running.Store(false)

	// The distributed lock is advisory: it keeps two replicas from
	// hammering the feed at the same instant, but a pass is safe to
	// run without it because every write is idempotent.
	if lockClient := config.GetRedisLock(); lockClient != nil {
		lock, err := lockClient.Obtain(ctx, syncLockKey, 10*time.Minute, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, ErrSyncBusy
			}
			s.logger.WithError(err).Warn("could not obtain sync lock, proceeding without it")
		} else {
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	correlationId := utils.CorrelationIdFromContextOrNew(ctx)
	ctx, span := tracer.Start(ctx, "regionalsync.RunOnce",
		trace.WithAttributes(
			attribute.String("sync.triggered_by", triggeredBy),
			attribute.String("sync.correlation_id", correlationId),
		))
	defer span.End()

	startedAt := time.Now()
	run := s.beginRun(ctx, triggeredBy, correlationId, startedAt)

	logger := s.logger.WithFields(logrus.Fields{
		"correlation_id": correlationId,
		"triggered_by":   triggeredBy,
	})
	logger.Info("regional sync pass started")

	raw, err := s.client.fetchRegionals(ctx)
	if err != nil {
		s.failRun(ctx, run, startedAt, err)
		config.LogError(s.logger, "regionalsync", "RunOnce", "feed fetch failed", map[string]interface{}{
			"correlation_id": correlationId,
		}, err)
		return nil, err
	}

	records, dropped, degraded := normalizeRecords(raw)
	for _, d := range dropped {
		logger.WithField("reason", d.Reason).Warn("feed record dropped")
	}
	for _, d := range degraded {
		logger.WithField("reason", d.Reason).Warn("feed record degraded, external code ignored")
	}

	db := config.GetDB()
	if db == nil {
		err := errors.New("database not connected")
		s.failRun(ctx, run, startedAt, err)
		return nil, err
	}

	snap, err := loadSnapshot(ctx, db)
	if err != nil {
		s.failRun(ctx, run, startedAt, err)
		return nil, fmt.Errorf("load active regionals: %w", err)
	}

	mutations := reconcile(records, snap)
	if err := applyMutations(ctx, db, s.logger, mutations); err != nil {
		s.failRun(ctx, run, startedAt, err)
		config.LogError(s.logger, "regionalsync", "RunOnce", "apply failed", map[string]interface{}{
			"correlation_id": correlationId,
		}, err)
		return nil, err
	}

	created, retired := mutationCounts(mutations)
	summary := &PassSummary{
		TriggeredBy:    triggeredBy,
		RecordsFetched: len(raw),
		RecordsDropped: len(dropped),
		RowsCreated:    created,
		RowsRetired:    retired,
		FinishedAt:     time.Now(),
	}
	if run != nil {
		summary.RunId = run.ID
	}
	s.finishRun(ctx, run, startedAt, summary, append(dropped, degraded...))

	span.SetAttributes(
		attribute.Int("sync.records_fetched", summary.RecordsFetched),
		attribute.Int("sync.rows_created", summary.RowsCreated),
		attribute.Int("sync.rows_retired", summary.RowsRetired),
	)
	logger.WithFields(logrus.Fields{
		"records_fetched": summary.RecordsFetched,
		"records_dropped": summary.RecordsDropped,
		"rows_created":    summary.RowsCreated,
		"rows_retired":    summary.RowsRetired,
		"duration":        time.Since(startedAt).String(),
	}).Info("regional sync pass finished")

	s.cacheLastRun(ctx, summary)
	s.publishEvent(ctx, summary, correlationId)

	return summary, nil
}

// IsRunning reports whether a pass currently holds the guard.
func (s *Syncer) IsRunning() bool {
	return s.running.Load()
}

// beginRun opens the bookkeeping row. Returns nil when no database is
// connected, and the rest of the pass tolerates that.
func (s *Syncer) beginRun(ctx context.Context, triggeredBy string, correlationId string, startedAt time.Time) *models.RegionalSyncRun {
	db := config.GetDB()
	if db == nil {
		return nil
	}
	run := &models.RegionalSyncRun{
		Status:        models.SyncRunStatusRunning,
		TriggeredBy:   triggeredBy,
		CorrelationId: correlationId,
		StartedAt:     &startedAt,
	}
	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.WithError(err).Warn("could not record sync run start")
		return nil
	}
	return run
}

func (s *Syncer) failRun(ctx context.Context, run *models.RegionalSyncRun, startedAt time.Time, cause error) {
	if run == nil {
		return
	}
	db := config.GetDB()
	if db == nil {
		return
	}
	finishedAt := time.Now()
	err := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":        models.SyncRunStatusFailed,
		"error_message": cause.Error(),
		"finished_at":   finishedAt,
		"duration_ms":   finishedAt.Sub(startedAt).Milliseconds(),
	}).Error
	if err != nil {
		s.logger.WithError(err).Warn("could not record sync run failure")
	}
}

func (s *Syncer) finishRun(ctx context.Context, run *models.RegionalSyncRun, startedAt time.Time, summary *PassSummary, dropped []DroppedRecord) {
	if run == nil {
		return
	}
	db := config.GetDB()
	if db == nil {
		return
	}
	err := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":          models.SyncRunStatusSuccess,
		"records_fetched": summary.RecordsFetched,
		"records_dropped": summary.RecordsDropped,
		"rows_created":    summary.RowsCreated,
		"rows_retired":    summary.RowsRetired,
		"finished_at":     summary.FinishedAt,
		"duration_ms":     summary.FinishedAt.Sub(startedAt).Milliseconds(),
	}).Error
	if err != nil {
		s.logger.WithError(err).Warn("could not record sync run result")
	}

	for _, d := range dropped {
		warning := models.RegionalSyncWarning{
			SyncRunId:  run.ID,
			Reason:     d.Reason,
			RawPayload: d.RawPayload,
		}
		if err := db.WithContext(ctx).Create(&warning).Error; err != nil {
			s.logger.WithError(err).Warn("could not record sync warning")
		}
	}
}

func (s *Syncer) cacheLastRun(ctx context.Context, summary *PassSummary) {
	if err := config.SetRedisObject(ctx, lastSyncCacheKey, summary, 24*time.Hour); err != nil {
		s.logger.WithError(err).Debug("could not cache last sync summary")
	}
}

// LastRun returns the cached summary of the most recent successful
// pass, or nil when none is cached.
func (s *Syncer) LastRun(ctx context.Context) *PassSummary {
	var summary PassSummary
	found, err := config.GetRedisObject(ctx, lastSyncCacheKey, &summary)
	if err != nil || !found {
		return nil
	}
	return &summary
}

func (s *Syncer) publishEvent(ctx context.Context, summary *PassSummary, correlationId string) {
	event := config.SyncEvent{
		RunId:         summary.RunId,
		TriggeredBy:   summary.TriggeredBy,
		FinishedAt:    summary.FinishedAt,
		RecordsSeen:   summary.RecordsFetched,
		Created:       summary.RowsCreated,
		Retired:       summary.RowsRetired,
		CorrelationId: correlationId,
	}
	if _, err := config.PublishSyncEvent(ctx, event); err != nil {
		s.logger.WithError(err).Warn("could not publish sync event")
	}
}
