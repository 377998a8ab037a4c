package storage

import "context"

// URIAdapter is the external file/URL capability the core storage consumes:
// it knows nothing about scheme semantics beyond load and save of opaque
// bytes at an opaque URI.
type URIAdapter interface {
	Load(ctx context.Context, uri string) ([]byte, error)
	Save(ctx context.Context, uri string, data []byte) error
}
