// Package source loads document bytes from local paths or s3:// URIs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrTooLarge is returned when a document exceeds the configured size cap.
var ErrTooLarge = errors.New("source: document too large")

const s3Scheme = "s3://"

// S3Config holds S3 connection settings. Empty keys fall back to the
// default AWS credential chain; a non-empty endpoint selects path-style
// addressing for S3-compatible stores.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// ObjectGetter is the subset of the S3 client the fetcher needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Document is a fetched input.
type Document struct {
	Name string // base name, used as the document ID in reports
	Ref  string // the path or URI it was loaded from
	Data []byte
}

// Fetcher resolves document references. The S3 client is created on first
// use so purely local runs never touch AWS configuration.
type Fetcher struct {
	cfg      S3Config
	maxBytes int64

	once   sync.Once
	client ObjectGetter
	err    error
}

// New returns a Fetcher. maxBytes <= 0 disables the size cap.
func New(cfg S3Config, maxBytes int64) *Fetcher {
	return &Fetcher{cfg: cfg, maxBytes: maxBytes}
}

// NewWithClient returns a Fetcher that uses client for s3:// references.
func NewWithClient(client ObjectGetter, maxBytes int64) *Fetcher {
	f := &Fetcher{client: client, maxBytes: maxBytes}
	f.once.Do(func() {})
	return f
}

// IsRemote reports whether ref is an s3:// URI.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, s3Scheme)
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("s3 uri needs bucket and object key: %q", uri)
	}
	return bucket, key, nil
}

// Fetch loads one document.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (Document, error) {
	if IsRemote(ref) {
		return f.fetchS3(ctx, ref)
	}
	return f.fetchLocal(ref)
}

func (f *Fetcher) fetchLocal(p string) (Document, error) {
	file, err := os.Open(p)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", p, err)
	}
	defer file.Close()

	data, err := f.readAll(file)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", p, err)
	}
	return Document{Name: filepath.Base(p), Ref: p, Data: data}, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, uri string) (Document, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return Document{}, err
	}
	client, err := f.s3Client(ctx)
	if err != nil {
		return Document{}, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, fmt.Errorf("s3 download %s: %w", uri, err)
	}
	defer out.Body.Close()

	data, err := f.readAll(out.Body)
	if err != nil {
		return Document{}, fmt.Errorf("s3 download read %s: %w", uri, err)
	}
	return Document{Name: path.Base(key), Ref: uri, Data: data}, nil
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.maxBytes)
	}
	return data, nil
}

func (f *Fetcher) s3Client(ctx context.Context) (ObjectGetter, error) {
	f.once.Do(func() {
		f.client, f.err = newS3Client(ctx, f.cfg)
	})
	return f.client, f.err
}

func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}
