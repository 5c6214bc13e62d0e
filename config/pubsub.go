package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// SyncEvent is published after a reconciliation pass has applied its
// mutations, so downstream consumers (notification fan-out, caches) can
// react without polling.
type SyncEvent struct {
	RunId         uint      `json:"run_id"`
	TriggeredBy   string    `json:"triggered_by"`
	FinishedAt    time.Time `json:"finished_at"`
	RecordsSeen   int       `json:"records_seen"`
	Created       int       `json:"created"`
	Retired       int       `json:"retired"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Application Default Credentials.
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}

	pubsubClientMu.Lock()
	if pubsubClient == nil {
		pubsubClient = c
	} else {
		// Another goroutine won the race; close ours.
		_ = c.Close()
	}
	c2 := pubsubClient
	pubsubClientMu.Unlock()

	log.Printf("pubsub client ready (project_id=%s)", projectID)
	return c2, nil
}

// PublishSyncEvent publishes a pass-completion event. Best-effort: the
// caller logs the error and moves on, a pass never fails because the
// event could not be published.
func PublishSyncEvent(ctx context.Context, event SyncEvent) (string, error) {
	topicName := os.Getenv("REGIONAL_SYNC_TOPIC")
	if topicName == "" {
		return "", errors.New("REGIONAL_SYNC_TOPIC is not set")
	}

	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	msgJSON, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	result := client.Topic(topicName).Publish(ctx, &pubsub.Message{
		Data: msgJSON,
	})
	return result.Get(ctx)
}
