// Package store persists named documents (JSON objects and plain text) on a
// pluggable backend: local files or a MongoDB collection.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when the named document does not exist.
var ErrNotFound = errors.New("document not found")

// Backend reads and writes raw document bodies by name.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Ping(ctx context.Context) error
}

// Default describes the content a document receives when it does not exist yet.
type Default struct {
	Name string
	Body []byte
}

// EmptyObject is the body of a freshly created JSON document.
var EmptyObject = []byte("{}\n")
