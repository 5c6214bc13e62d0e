package regionalsync

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seplag/artistalbum_backend/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRunOnceBusyGuard(t *testing.T) {
	s := &Syncer{
		logger: newTestLogger(),
		client: newFeedClient("http://127.0.0.1:0", time.Second),
	}
	s.running.Store(true)

	_, err := s.RunOnce(context.Background(), models.SyncTriggeredManual)
	if !errors.Is(err, ErrSyncBusy) {
		t.Fatalf("expected ErrSyncBusy, got %v", err)
	}
}

func TestRunOnceFeedFailureAbortsWithoutWrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	// No database is connected in this test. A pass that survives a
	// feed failure far enough to plan or apply writes would blow up on
	// the nil handle, so a clean FetchError return proves the pass
	// aborted before touching the mirror.
	s := &Syncer{
		logger: newTestLogger(),
		client: newFeedClient(srv.URL, time.Second),
	}

	summary, err := s.RunOnce(context.Background(), models.SyncTriggeredManual)
	if summary != nil {
		t.Fatalf("failed pass must not produce a summary: %+v", summary)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestRunOnceReleasesGuardAfterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := &Syncer{
		logger: newTestLogger(),
		client: newFeedClient(srv.URL, time.Second),
	}

	if _, err := s.RunOnce(context.Background(), models.SyncTriggeredManual); err == nil {
		t.Fatal("expected a fetch error")
	}
	if s.IsRunning() {
		t.Fatal("guard still held after a failed pass")
	}

	// The second attempt must fail on the feed again, not on the guard.
	_, err := s.RunOnce(context.Background(), models.SyncTriggeredManual)
	if errors.Is(err, ErrSyncBusy) {
		t.Fatalf("guard was not released: %v", err)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestTriggerSyncHandlerReturnsConflictWhenBusy(t *testing.T) {
	s := &Syncer{
		logger: newTestLogger(),
		client: newFeedClient("http://127.0.0.1:0", time.Second),
	}
	s.running.Store(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/regionals/sync", nil)

	router := newTestRouter(s)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTriggerSyncHandlerMapsFeedFailureToBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := &Syncer{
		logger: newTestLogger(),
		client: newFeedClient(srv.URL, time.Second),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/regionals/sync", nil)

	router := newTestRouter(s)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}
