package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/halcyonpay/fraudsentry/internal/retry"
)

var errEmptySource = errors.New("ledger source is empty")

// Source fetches raw ledger bytes. Implementations must be safe for a
// single startup-time call; the ledger is never re-fetched afterwards.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// ObjectStoreSource fetches the ledger export from an S3-compatible
// object store over path-style HTTP (GET {endpoint}/{bucket}/{key}).
// Transient fetch failures are retried with backoff before ingestion
// gives up and aborts startup.
type ObjectStoreSource struct {
	Endpoint string
	Bucket   string
	Key      string

	client      *http.Client
	maxAttempts int
}

// NewObjectStoreSource creates an object-store source with a bounded
// per-request timeout.
func NewObjectStoreSource(endpoint, bucket, key string, timeout time.Duration) *ObjectStoreSource {
	return &ObjectStoreSource{
		Endpoint:    strings.TrimRight(endpoint, "/"),
		Bucket:      bucket,
		Key:         key,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: 3,
	}
}

func (s *ObjectStoreSource) url() string {
	return fmt.Sprintf("%s/%s/%s", s.Endpoint, s.Bucket, s.Key)
}

// Fetch downloads the ledger object. A non-2xx status on the final
// attempt is an error; 4xx responses are not retried.
func (s *ObjectStoreSource) Fetch(ctx context.Context) ([]byte, error) {
	var body []byte

	err := retry.Do(ctx, s.maxAttempts, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(), nil)
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.Permanent(fmt.Errorf("object store returned %d for %s", resp.StatusCode, s.url()))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("object store returned %d for %s", resp.StatusCode, s.url())
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FileSource reads the ledger export from local disk. Used in
// development and tests.
type FileSource struct {
	Path string
}

// NewFileSource creates a local-file source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}
