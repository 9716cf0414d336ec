package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vango-dev/observe/pkg/middleware"
	"github.com/vango-dev/observe/pkg/observe"
)

// PutObjectAPI is the part of the S3 client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DefaultTimeout bounds a single upload.
const DefaultTimeout = 30 * time.Second

// Sink uploads snapshots of an observable value to one S3 object.
type Sink struct {
	client  PutObjectAPI
	bucket  string
	key     string
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	latest  []byte
	seq     uint64
	pending uint64 // seq of latest
	wake    chan struct{}
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger for upload failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = l
	}
}

// WithTimeout sets the per-upload timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		s.timeout = d
	}
}

// New creates a sink writing to bucket/key.
func New(client PutObjectAPI, bucket, key string, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		bucket:  bucket,
		key:     key,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		now:     time.Now,
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach subscribes the sink to the change event of src. The value of each
// change is encoded immediately and uploaded by Run.
func (s *Sink) Attach(src observe.Source) *observe.Subscription {
	return src.Subscribe(s.enqueue)
}

func (s *Sink) enqueue(value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("snapshot encode failed", "bucket", s.bucket, "key", s.key, "error", err)
		middleware.RecordSnapshot(err)
		return
	}

	s.mu.Lock()
	s.seq++
	s.latest = data
	s.pending = s.seq
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run uploads enqueued snapshots until ctx is done, then uploads whatever
// is still pending and returns. Upload errors are logged and counted; they
// do not stop Run.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush(context.WithoutCancel(ctx))
			return nil
		case <-s.wake:
			s.flush(ctx)
		}
	}
}

// flush uploads the latest pending snapshot, if any.
func (s *Sink) flush(ctx context.Context) {
	s.mu.Lock()
	data, seq := s.latest, s.pending
	s.latest = nil
	s.mu.Unlock()

	if data == nil {
		return
	}
	if err := s.put(ctx, data, seq); err != nil {
		s.logger.Error("snapshot upload failed",
			"bucket", s.bucket,
			"key", s.key,
			"seq", seq,
			"error", err,
		)
	}
}

// Save encodes value and uploads it synchronously.
func (s *Sink) Save(ctx context.Context, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		middleware.RecordSnapshot(err)
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	return s.put(ctx, data, seq)
}

func (s *Sink) put(ctx context.Context, data []byte, seq uint64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-id": uuid.NewString(),
			"sequence":    strconv.FormatUint(seq, 10),
			"saved-at":    s.now().UTC().Format(time.RFC3339),
		},
	})
	middleware.RecordSnapshot(err)
	if err != nil {
		return fmt.Errorf("snapshot: upload s3://%s/%s: %w", s.bucket, s.key, err)
	}

	s.logger.Debug("snapshot uploaded", "bucket", s.bucket, "key", s.key, "seq", seq, "bytes", len(data))
	return nil
}
