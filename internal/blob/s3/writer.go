package s3blob

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jmfarina/betscan/internal/domain"
)

// reportPartSize is the upload part size, the S3 minimum of 5 MiB. Cycle
// reports are far smaller and go up in a single part; the manager switches
// to multipart on its own if an odds dump ever outgrows this.
const reportPartSize int64 = 5 * 1024 * 1024

// Writer archives exporter reports into the client's bucket.
type Writer struct {
	uploader *manager.Uploader
	bucket   string
}

// NewWriter creates a report Writer over the given client.
func NewWriter(c *Client) *Writer {
	return &Writer{
		uploader: manager.NewUploader(c.s3, func(u *manager.Uploader) {
			u.PartSize = reportPartSize
		}),
		bucket: c.bucket,
	}
}

// Put uploads one report. An empty contentType is inferred from the key's
// extension.
func (w *Writer) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	if contentType == "" {
		contentType = reportContentType(key)
	}

	_, err := w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: upload %s: %w", key, err)
	}
	return nil
}

// reportContentType maps the exporter's report formats to media types.
func reportContentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Compile-time interface check.
var _ domain.BlobWriter = (*Writer)(nil)
