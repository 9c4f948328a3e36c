// Package docsource opens documents for upload from the local filesystem or
// from S3 (s3://bucket/key).
package docsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

var ErrInvalidRef = errors.New("invalid document reference")

// Source is an opened document. The caller closes Body.
type Source struct {
	Name string
	Size int64
	Body io.ReadCloser
}

// ObjectGetter is the part of the S3 client used here.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config selects the region and, optionally, static credentials. Without
// keys the default AWS credential chain is used.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
}

type Opener struct {
	cfg S3Config
	s3  ObjectGetter
}

func NewOpener(cfg S3Config) *Opener {
	return &Opener{cfg: cfg}
}

// WithObjectGetter replaces the S3 client, e.g. in tests.
func (o *Opener) WithObjectGetter(g ObjectGetter) *Opener {
	o.s3 = g
	return o
}

// IsS3 reports whether ref names an S3 object.
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, s3Scheme)
}

// ParseS3 splits s3://bucket/key.
func ParseS3(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3 url", ErrInvalidRef, ref)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q needs a bucket and an object key", ErrInvalidRef, ref)
	}
	return bucket, key, nil
}

// Open returns the document named by ref.
func (o *Opener) Open(ctx context.Context, ref string) (Source, error) {
	if ref == "" {
		return Source{}, fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	if IsS3(ref) {
		return o.openS3(ctx, ref)
	}
	return openFile(ref)
}

func openFile(p string) (Source, error) {
	f, err := os.Open(p)
	if err != nil {
		return Source{}, fmt.Errorf("open %s: %w", p, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Source{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return Source{}, fmt.Errorf("%w: %s is a directory", ErrInvalidRef, p)
	}
	return Source{Name: st.Name(), Size: st.Size(), Body: f}, nil
}

func (o *Opener) client(ctx context.Context) (ObjectGetter, error) {
	if o.s3 != nil {
		return o.s3, nil
	}

	opts := []func(*config.LoadOptions) error{}
	if o.cfg.Region != "" {
		opts = append(opts, config.WithRegion(o.cfg.Region))
	}
	if o.cfg.AccessKey != "" && o.cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.cfg.AccessKey, o.cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	o.s3 = s3.NewFromConfig(awsCfg)
	return o.s3, nil
}

func (o *Opener) openS3(ctx context.Context, ref string) (Source, error) {
	bucket, key, err := ParseS3(ref)
	if err != nil {
		return Source{}, err
	}

	c, err := o.client(ctx)
	if err != nil {
		return Source{}, err
	}

	out, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Source{}, fmt.Errorf("s3 get failed: %w", err)
	}

	return Source{
		Name: path.Base(key),
		Size: aws.ToInt64(out.ContentLength),
		Body: out.Body,
	}, nil
}
