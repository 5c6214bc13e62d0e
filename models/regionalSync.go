package models

import (
	"context"
	"time"

	"github.com/seplag/artistalbum_backend/config"
)

const (
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
)

const (
	SyncTriggeredManual   = "manual"
	SyncTriggeredInterval = "interval"
)

// RegionalSyncRun records one reconciliation pass for operators: what
// triggered it, how it ended and how much it changed.
type RegionalSyncRun struct {
	ID             uint       `gorm:"primary_key" json:"id"`
	Status         string     `gorm:"size:20;not null;index" json:"status"`
	TriggeredBy    string     `gorm:"size:20" json:"triggered_by"`
	RecordsFetched int        `json:"records_fetched"`
	RecordsDropped int        `json:"records_dropped"`
	RowsCreated    int        `json:"rows_created"`
	RowsRetired    int        `json:"rows_retired"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message"`
	CorrelationId  string     `gorm:"size:64" json:"correlation_id"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	DurationMs     int64      `json:"duration_ms"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RegionalSyncWarning persists one dropped/degraded feed record so a
// bad upstream payload can be inspected after the fact.
type RegionalSyncWarning struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	SyncRunId  uint      `gorm:"index;not null" json:"sync_run_id"`
	Reason     string    `gorm:"size:64" json:"reason"`
	RawPayload []byte    `gorm:"type:json" json:"raw_payload"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetSyncRuns(ctx context.Context, limit int) ([]*RegionalSyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := config.GetDB()
	var runs []*RegionalSyncRun
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func GetSyncRun(ctx context.Context, id uint) (*RegionalSyncRun, []*RegionalSyncWarning, error) {
	db := config.GetDB()
	var run RegionalSyncRun
	if err := db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, nil, err
	}
	var warnings []*RegionalSyncWarning
	if err := db.WithContext(ctx).
		Where("sync_run_id = ?", id).
		Order("id").
		Find(&warnings).Error; err != nil {
		return nil, nil, err
	}
	return &run, warnings, nil
}
