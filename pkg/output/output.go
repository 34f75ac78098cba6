// Package output opens the archive that receives a copy of every protocol
// message the connector writes to stdout.
//
// Supported locations:
//
//	/var/log/coda/run.jsonl           local file
//	file:///var/log/coda/run.jsonl.gz local file, gzip
//	s3://bucket/runs/run.jsonl.zst    S3 object via the multipart uploader
//	gs://bucket/runs/run.jsonl.lz4    Cloud Storage object
//
// The codec is chosen from the file extension (see compression.AlgorithmForPath).
package output

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/source-coda/pkg/compression"
	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// DefaultUploadTimeout bounds an object store upload from Open to Close
const DefaultUploadTimeout = 15 * time.Minute

// Location schemes
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
)

const contentType = "application/x-ndjson"

// Location is a parsed archive location
type Location struct {
	Scheme string
	// Bucket is empty for local files
	Bucket string
	// Key is the object key, or the file path for local files
	Key string
}

// ParseLocation splits raw into scheme, bucket and key. A bare path is a
// local file.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, errors.New(errors.ErrorTypeConfig, "output location is empty")
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: SchemeFile, Key: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output location").
			WithDetail("location", raw)
	}

	switch u.Scheme {
	case SchemeFile:
		if u.Path == "" {
			return Location{}, errors.New(errors.ErrorTypeConfig, "file location has no path").
				WithDetail("location", raw)
		}
		return Location{Scheme: SchemeFile, Key: u.Path}, nil
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.New(errors.ErrorTypeConfig, "object location needs a bucket and a key").
				WithDetail("location", raw)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, errors.New(errors.ErrorTypeConfig, "unsupported output scheme "+u.Scheme).
			WithDetail("location", raw)
	}
}

// S3Uploader is the part of manager.Uploader the archive uses
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Options configures Open
type Options struct {
	// Uploader overrides the uploader built from the default AWS config
	Uploader S3Uploader
	// AWSRegion is passed to the default AWS config loader when set
	AWSRegion string
	// GCSOptions are passed to storage.NewClient
	GCSOptions []option.ClientOption
	// Level is the compression level for compressed archives
	Level compression.Level
	// UploadTimeout bounds S3 and Cloud Storage uploads. Once it passes,
	// writes and Close fail instead of waiting on the store.
	UploadTimeout time.Duration
}

// Option customizes Open
type Option func(*Options)

// WithS3Uploader uploads S3 archives through u
func WithS3Uploader(u S3Uploader) Option {
	return func(o *Options) { o.Uploader = u }
}

// WithAWSRegion sets the AWS region
func WithAWSRegion(region string) Option {
	return func(o *Options) { o.AWSRegion = region }
}

// WithGCSOptions adds Cloud Storage client options
func WithGCSOptions(opts ...option.ClientOption) Option {
	return func(o *Options) { o.GCSOptions = append(o.GCSOptions, opts...) }
}

// WithUploadTimeout sets how long an object store upload may take
func WithUploadTimeout(d time.Duration) Option {
	return func(o *Options) { o.UploadTimeout = d }
}

// WithCompressionLevel sets the codec level
func WithCompressionLevel(level compression.Level) Option {
	return func(o *Options) { o.Level = level }
}

// Open creates the archive at raw. Data is durable only after Close
// returns nil.
func Open(ctx context.Context, raw string, opts ...Option) (io.WriteCloser, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}

	o := Options{Level: compression.Default, UploadTimeout: DefaultUploadTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	var sink io.WriteCloser
	switch loc.Scheme {
	case SchemeFile:
		sink, err = openFile(loc.Key)
	case SchemeS3:
		sink, err = openS3(ctx, loc, o)
	case SchemeGCS:
		sink, err = openGCS(ctx, loc, o)
	}
	if err != nil {
		return nil, err
	}

	algo := compression.AlgorithmForPath(loc.Key)
	if algo == compression.None {
		return sink, nil
	}
	codec, err := compression.NewWriter(sink, compression.Config{Algorithm: algo, Level: o.Level})
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	return &layered{WriteCloser: codec, base: sink}, nil
}

func openFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
				WithDetail("path", dir)
		}
	}
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	return f, nil
}

func openS3(ctx context.Context, loc Location, o Options) (io.WriteCloser, error) {
	uploader := o.Uploader
	if uploader == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if o.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(o.AWSRegion))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
		}
		uploader = manager.NewUploader(s3.NewFromConfig(cfg))
	}

	uctx, cancel := context.WithTimeout(ctx, o.UploadTimeout)
	pr, pw := io.Pipe()
	sink := &pipeSink{pw: pw, done: make(chan error, 1), ctx: uctx, cancel: cancel, loc: loc}

	// unblock writers even if the uploader ignores its context
	context.AfterFunc(uctx, func() {
		_ = pr.CloseWithError(uploadTimeout(uctx, loc))
	})

	go func() {
		_, err := uploader.Upload(uctx, &s3.PutObjectInput{
			Bucket:      aws.String(loc.Bucket),
			Key:         aws.String(loc.Key),
			Body:        pr,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			err = errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload archive to S3").
				WithDetail("bucket", loc.Bucket).
				WithDetail("key", loc.Key)
		}
		// unblock writers if the upload stopped reading
		_ = pr.CloseWithError(err)
		sink.done <- err
	}()

	return sink, nil
}

func openGCS(ctx context.Context, loc Location, o Options) (io.WriteCloser, error) {
	client, err := storage.NewClient(ctx, o.GCSOptions...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create Cloud Storage client")
	}

	uctx, cancel := context.WithTimeout(ctx, o.UploadTimeout)
	w := client.Bucket(loc.Bucket).Object(loc.Key).NewWriter(uctx)
	w.ContentType = contentType
	return &gcsSink{Writer: w, client: client, loc: loc, cancel: cancel}, nil
}

func uploadTimeout(ctx context.Context, loc Location) error {
	return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "archive upload did not finish in time").
		WithDetail("bucket", loc.Bucket).
		WithDetail("key", loc.Key)
}

// pipeSink feeds an upload running in another goroutine
type pipeSink struct {
	pw     *io.PipeWriter
	done   chan error
	ctx    context.Context
	cancel context.CancelFunc
	loc    Location

	once sync.Once
	err  error
}

func (p *pipeSink) Write(b []byte) (int, error) {
	return p.pw.Write(b)
}

// Close ends the body and waits for the upload to finish, at most until
// the upload timeout.
func (p *pipeSink) Close() error {
	p.once.Do(func() {
		defer p.cancel()
		_ = p.pw.Close()
		select {
		case p.err = <-p.done:
		case <-p.ctx.Done():
			p.err = uploadTimeout(p.ctx, p.loc)
		}
	})
	return p.err
}

type gcsSink struct {
	*storage.Writer
	client *storage.Client
	loc    Location
	cancel context.CancelFunc
}

func (g *gcsSink) Close() error {
	defer g.cancel()
	err := g.Writer.Close()
	_ = g.client.Close()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload archive to Cloud Storage").
			WithDetail("bucket", g.loc.Bucket).
			WithDetail("object", g.loc.Key)
	}
	return nil
}

// layered closes a codec and then the sink under it
type layered struct {
	io.WriteCloser
	base io.WriteCloser
}

func (l *layered) Close() error {
	err := l.WriteCloser.Close()
	if baseErr := l.base.Close(); err == nil {
		err = baseErr
	}
	return err
}
