// Package storage wraps the MinIO object store used for raw listing
// files, the intent side channel, and object-created notifications.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"propchat/internal/config"
	"propchat/internal/model"
)

// ObjectEvent is one "new object created" notification
type ObjectEvent struct {
	Bucket string
	Key    string
}

// Client wraps a MinIO connection
type Client struct {
	mc            *minio.Client
	intentsBucket string
}

// NewClient creates a new object storage client
func NewClient(cfg *config.MinioConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{mc: mc, intentsBucket: cfg.IntentsBucket}, nil
}

// EnsureBucket creates the bucket if it does not exist
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	return c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

// GetObject reads one object fully into memory
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// SaveIntent persists one classified intent as a timestamped JSON record
// keyed by user and query, for offline analysis
func (c *Client) SaveIntent(ctx context.Context, record *model.IntentRecord) error {
	timestamp := record.Timestamp.Format("2006-01-02T15-04-05Z")
	key := fmt.Sprintf("intents/user_%s_%s.json", record.UserID, timestamp)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal intent record: %w", err)
	}

	_, err = c.mc.PutObject(ctx, c.intentsBucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to save intent to %s/%s: %w", c.intentsBucket, key, err)
	}

	log.Printf("Saved intent to %s/%s", c.intentsBucket, key)
	return nil
}

// ListenObjectCreated subscribes to object-created notifications on the
// bucket and forwards them as (bucket, key) events until ctx is done
func (c *Client) ListenObjectCreated(ctx context.Context, bucket string) <-chan ObjectEvent {
	events := make(chan ObjectEvent)

	go func() {
		defer close(events)

		notifications := c.mc.ListenBucketNotification(ctx, bucket, "", "", []string{"s3:ObjectCreated:*"})
		for info := range notifications {
			if info.Err != nil {
				log.Printf("Bucket notification error: %v", info.Err)
				continue
			}
			for _, record := range info.Records {
				key := record.S3.Object.Key
				// Keys arrive URL-encoded in notification payloads
				if decoded, err := url.QueryUnescape(key); err == nil {
					key = decoded
				}
				if strings.TrimSpace(key) == "" {
					continue
				}

				select {
				case events <- ObjectEvent{Bucket: record.S3.Bucket.Name, Key: key}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
