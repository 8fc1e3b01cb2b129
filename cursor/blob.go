package cursor

import (
	"context"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kbukum/ingestkit/errors"
)

// BlobStore keeps the cursor as an RFC 3339 timestamp in a blob bucket, which
// may be a local directory, S3, GCS or an in-memory bucket.
type BlobStore struct {
	bucket *blob.Bucket
	key    string
}

// NewBlobStore stores the cursor under key in bucket. The caller owns the
// bucket and closes it.
func NewBlobStore(bucket *blob.Bucket, key string) *BlobStore {
	return &BlobStore{bucket: bucket, key: key}
}

func (s *BlobStore) GetLastExecutionTime(ctx context.Context) (time.Time, bool, error) {
	data, err := s.bucket.ReadAll(ctx, s.key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.StoreError("cursor", "get", err)
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false, errors.StoreError("cursor", "decode", err)
	}
	return t, true, nil
}

func (s *BlobStore) SaveLastExecutionTime(ctx context.Context, t time.Time) error {
	data := []byte(t.UTC().Format(time.RFC3339Nano))
	opts := &blob.WriterOptions{ContentType: "text/plain; charset=utf-8"}
	if err := s.bucket.WriteAll(ctx, s.key, data, opts); err != nil {
		return errors.StoreError("cursor", "save", err)
	}
	return nil
}

func (s *BlobStore) Clear(ctx context.Context) error {
	err := s.bucket.Delete(ctx, s.key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.StoreError("cursor", "clear", err)
	}
	return nil
}
