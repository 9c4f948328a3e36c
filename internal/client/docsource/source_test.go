package docsource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentLength: aws.Int64(int64(len(f.body))),
	}, nil
}

func TestOpen_LocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o600))

	src, err := NewOpener(S3Config{}).Open(context.Background(), p)
	require.NoError(t, err)
	defer src.Body.Close()

	assert.Equal(t, "notes.txt", src.Name)
	assert.Equal(t, int64(5), src.Size)
	data, _ := io.ReadAll(src.Body)
	assert.Equal(t, "hello", string(data))
}

func TestOpen_LocalErrors(t *testing.T) {
	o := NewOpener(S3Config{})

	_, err := o.Open(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidRef)

	_, err = o.Open(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = o.Open(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrInvalidRef)
}

func TestOpen_S3(t *testing.T) {
	fake := &fakeS3{body: "%PDF-1.7"}
	o := NewOpener(S3Config{Region: "eu-west-1"}).WithObjectGetter(fake)

	src, err := o.Open(context.Background(), "s3://papers/2024/attention.pdf")
	require.NoError(t, err)
	defer src.Body.Close()

	assert.Equal(t, "papers", fake.bucket)
	assert.Equal(t, "2024/attention.pdf", fake.key)
	assert.Equal(t, "attention.pdf", src.Name)
	assert.Equal(t, int64(8), src.Size)
}

func TestOpen_S3Error(t *testing.T) {
	o := NewOpener(S3Config{}).WithObjectGetter(&fakeS3{err: errors.New("NoSuchKey")})

	_, err := o.Open(context.Background(), "s3://papers/x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 get failed")
}

func TestParseS3(t *testing.T) {
	b, k, err := ParseS3("s3://bucket/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "bucket", b)
	assert.Equal(t, "a/b.txt", k)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key", "http://x/y", "s3://bucket/dir/"} {
		_, _, err := ParseS3(bad)
		require.ErrorIs(t, err, ErrInvalidRef, bad)
	}
}
