// Package storage publishes generated files to local disk or S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"                  //nolint:staticcheck
	"github.com/aws/aws-sdk-go/aws/session"          //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/s3/s3manager" //nolint:staticcheck

	"github.com/Conceptual-Machines/magda-patterns/internal/config"
	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
)

// Exporter stores a named file and returns where it ended up
type Exporter interface {
	Export(ctx context.Context, name string, data []byte) (string, error)
}

// New picks the S3 exporter when a bucket is configured, local disk otherwise
func New(cfg *config.Config) Exporter {
	if cfg.ExportS3Bucket != "" {
		sess := session.Must(session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
		}))
		logger.Info("Exporting to S3", logger.Fields{"bucket": cfg.ExportS3Bucket, "prefix": cfg.ExportS3Prefix})
		return NewS3Exporter(s3manager.NewUploader(sess), cfg.ExportS3Bucket, cfg.ExportS3Prefix)
	}
	return NewLocalExporter(cfg.OutputDir)
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid export name %q", name)
	}
	return nil
}

// ContentType returns the MIME type for an exported file name
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mid", ".midi":
		return "audio/midi"
	case ".wav":
		return "audio/wav"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// LocalExporter writes files into a directory
type LocalExporter struct {
	Dir string
}

func NewLocalExporter(dir string) *LocalExporter {
	return &LocalExporter{Dir: dir}
}

// Export writes data to Dir/name, creating Dir on demand
func (e *LocalExporter) Export(_ context.Context, name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	dest := filepath.Join(e.Dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Exporter uploads files under a key prefix in a bucket
type S3Exporter struct {
	uploader uploader
	bucket   string
	prefix   string
}

func NewS3Exporter(u uploader, bucket, prefix string) *S3Exporter {
	return &S3Exporter{uploader: u, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key used for name
func (e *S3Exporter) Key(name string) string {
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}

// Export uploads data and returns its s3:// URI
func (e *S3Exporter) Export(ctx context.Context, name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	key := e.Key(name)
	_, err := e.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}
