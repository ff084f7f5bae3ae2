package domain

import (
	"context"
	"io"
)

// BlobWriter archives report files to object storage. Path is the full
// object key; an empty contentType lets the implementation infer one from
// the path.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
