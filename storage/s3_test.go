package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = body
	f.puts = append(f.puts, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &notFoundErr{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(body)))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &notFoundErr{}
	}
	return &s3.HeadObjectOutput{}, nil
}

type notFoundErr struct{}

func (e *notFoundErr) Error() string                 { return "NotFound: not found" }
func (e *notFoundErr) ErrorCode() string             { return "NotFound" }
func (e *notFoundErr) ErrorMessage() string          { return "not found" }
func (e *notFoundErr) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestDigestRoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, "bucket", "giggle")

	digest := &types.Digest{
		ExecutiveSummary: "summary",
		KeyFindings:      []string{"finding"},
	}
	key, err := store.PutDigest(context.Background(), "page-1", digest)
	require.NoError(t, err)
	assert.Equal(t, "giggle/digests/page-1.json", key)

	got, err := store.GetDigest(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, digest.ExecutiveSummary, got.ExecutiveSummary)
	assert.Equal(t, digest.KeyFindings, got.KeyFindings)
}

func TestPutScript(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, "bucket", "")

	key, err := store.PutScript(context.Background(), "page-1", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "scripts/page-1.txt", key)
	assert.Equal(t, "hello world", string(fake.objects[key]))
}

func TestExists(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, "bucket", "")

	ok, err := store.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	fake.objects["present"] = []byte("x")
	ok, err = store.Exists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeyLayout(t *testing.T) {
	store := newWithClient(newFakeS3(), "bucket", "giggle")
	assert.Equal(t, "giggle/videos/p.mp4", store.VideoKey("p"))
	assert.Equal(t, "giggle/scripts/p.txt", store.ScriptKey("p"))
	assert.Equal(t, "giggle/digests/p.json", store.DigestKey("p"))
}
