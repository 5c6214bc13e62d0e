package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/models"
	"github.com/seplag/artistalbum_backend/regionalsync"
)

// regional-sync-once runs a single reconciliation pass and exits. Meant
// for cron jobs and operators who want a pass outside the service loop.
func main() {
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	}

	syncer := regionalsync.NewSyncer(logger)
	summary, err := syncer.RunOnce(ctx, models.SyncTriggeredManual)
	if err != nil {
		if errors.Is(err, regionalsync.ErrSyncBusy) {
			fmt.Println("busy: another pass is already running")
			os.Exit(1)
		}
		config.LogError(logger, "regional-sync-once", "main", "pass failed", nil, err)
		os.Exit(1)
	}

	fmt.Printf("pass %d completed: fetched=%d dropped=%d created=%d retired=%d\n",
		summary.RunId, summary.RecordsFetched, summary.RecordsDropped,
		summary.RowsCreated, summary.RowsRetired)
}
