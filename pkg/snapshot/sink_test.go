package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/observe/pkg/observe"
)

// fakeS3 records PutObject calls.
type fakeS3 struct {
	mu     sync.Mutex
	puts   []*s3.PutObjectInput
	bodies []string
	err    error
	calls  chan struct{}
	block  chan struct{}
}

func newFakeS3() *fakeS3 {
	return &fakeS3{calls: make(chan struct{}, 16)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.block != nil {
		<-f.block
	}
	body, _ := io.ReadAll(in.Body)

	f.mu.Lock()
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(body))
	err := f.err
	f.mu.Unlock()

	f.calls <- struct{}{}
	if err != nil {
		return nil, err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) snapshot() ([]*s3.PutObjectInput, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*s3.PutObjectInput(nil), f.puts...), append([]string(nil), f.bodies...)
}

func waitCall(t *testing.T, f *fakeS3) {
	t.Helper()
	select {
	case <-f.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for PutObject")
	}
}

func TestSink_Save(t *testing.T) {
	fake := newFakeS3()
	sink := New(fake, "lists", "shared/groceries.json")
	sink.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, sink.Save(context.Background(), []any{"milk", 2}))

	puts, bodies := fake.snapshot()
	require.Len(t, puts, 1)
	in := puts[0]
	assert.Equal(t, "lists", aws.ToString(in.Bucket))
	assert.Equal(t, "shared/groceries.json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))
	assert.Equal(t, int64(len(`["milk",2]`)), aws.ToInt64(in.ContentLength))
	assert.Equal(t, `["milk",2]`, bodies[0])
	assert.Equal(t, "1", in.Metadata["sequence"])
	assert.Equal(t, "2026-01-02T03:04:05Z", in.Metadata["saved-at"])
	_, err := uuid.Parse(in.Metadata["snapshot-id"])
	assert.NoError(t, err)
}

func TestSink_SaveErrors(t *testing.T) {
	fake := newFakeS3()
	fake.err = errors.New("AccessDenied")
	sink := New(fake, "lists", "a.json")

	err := sink.Save(context.Background(), []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://lists/a.json")
	assert.ErrorIs(t, err, fake.err)

	err = sink.Save(context.Background(), make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode")
}

func TestSink_AttachUploadsChanges(t *testing.T) {
	fake := newFakeS3()
	sink := New(fake, "b", "k")
	arr := observe.NewObservableArray([]string{"a"})
	sink.Attach(arr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sink.Run(ctx) }()

	arr.Push("b")
	waitCall(t, fake)

	_, bodies := fake.snapshot()
	assert.Equal(t, `["a","b"]`, bodies[0])

	cancel()
	require.NoError(t, <-done)
}

func TestSink_CoalescesWhileUploading(t *testing.T) {
	fake := newFakeS3()
	fake.block = make(chan struct{})
	sink := New(fake, "b", "k")
	arr := observe.NewObservableArray([]int{})
	sink.Attach(arr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sink.Run(ctx) }()

	arr.Push(1)
	// Wait until the first upload is in flight and holding the snapshot.
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.latest == nil
	}, 2*time.Second, time.Millisecond)

	arr.Push(2)
	arr.Push(3)
	arr.Push(4)
	close(fake.block)

	waitCall(t, fake)
	waitCall(t, fake)

	cancel()
	require.NoError(t, <-done)

	puts, bodies := fake.snapshot()
	require.Len(t, puts, 2, "changes made during an upload collapse into one")
	assert.Equal(t, "[1]", bodies[0])
	assert.Equal(t, "[1,2,3,4]", bodies[1])
	assert.Equal(t, "4", puts[1].Metadata["sequence"])
}

func TestSink_FlushOnShutdown(t *testing.T) {
	fake := newFakeS3()
	sink := New(fake, "b", "k")
	arr := observe.NewObservableArray([]int{})
	sink.Attach(arr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	arr.Push(7)

	require.NoError(t, sink.Run(ctx))
	_, bodies := fake.snapshot()
	require.NotEmpty(t, bodies)
	assert.Equal(t, "[7]", bodies[len(bodies)-1])
}

func TestSink_UploadFailureIsLogged(t *testing.T) {
	fake := newFakeS3()
	fake.err = errors.New("NoSuchBucket")
	var logs bytes.Buffer
	var logsMu sync.Mutex
	logger := slog.New(slog.NewTextHandler(lockedWriter{&logs, &logsMu}, nil))

	sink := New(fake, "missing", "k", WithLogger(logger), WithTimeout(time.Second))
	arr := observe.NewObservableArray([]int{})
	sink.Attach(arr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sink.Run(ctx) }()

	assert.NotPanics(t, func() { arr.Push(1) })
	waitCall(t, fake)
	cancel()
	require.NoError(t, <-done)

	logsMu.Lock()
	defer logsMu.Unlock()
	assert.Contains(t, logs.String(), "snapshot upload failed")
	assert.True(t, strings.Contains(logs.String(), "NoSuchBucket"))
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := NewS3Client(ClientConfig{})
	assert.ErrorIs(t, err, errNoCredentials)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_REGION", "eu-west-1")
	client, err := NewS3Client(ClientConfig{Endpoint: "http://localhost:9000", PathStyle: true})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}
