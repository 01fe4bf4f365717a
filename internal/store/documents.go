package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/logging"
)

// Documents is the key-value view over a Backend. Loading never fails: a
// missing or unreadable document yields the zero value.
type Documents struct {
	backend Backend
	logger  *logrus.Entry
	mu      sync.Mutex
}

// NewDocuments wraps backend.
func NewDocuments(backend Backend, logger *logrus.Entry) *Documents {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Documents{
		backend: backend,
		logger:  logger,
	}
}

// LoadJSON decodes the named document into a fresh T. Missing, unreadable or
// corrupt documents produce the zero T and a log line.
func LoadJSON[T any](ctx context.Context, d *Documents, name string) T {
	data, ok := d.read(ctx, name)
	if !ok {
		var zero T
		return zero
	}

	return decodeJSON[T](d, name, data)
}

// LoadJSONForUpdate is LoadJSON for read-modify-write cycles. A missing or
// corrupt document still yields the zero T, but any other backend failure is
// returned so the caller never saves over a document it could not read.
func LoadJSONForUpdate[T any](ctx context.Context, d *Documents, name string) (T, error) {
	var zero T

	if d == nil || d.backend == nil {
		return zero, errors.New("documents store is not initialized")
	}
	if ctx == nil {
		return zero, errors.New("context is required")
	}

	data, err := d.backend.Read(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, nil
		}
		return zero, fmt.Errorf("read %s: %w", name, err)
	}

	return decodeJSON[T](d, name, data), nil
}

func decodeJSON[T any](d *Documents, name string, data []byte) T {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":    "document_corrupt",
			"document": name,
		}).WithError(err).Warn("document is not valid json, using empty value")
		var zero T
		return zero
	}

	return value
}

// SaveJSON writes v as indented JSON, replacing the whole document.
func (d *Documents) SaveJSON(ctx context.Context, name string, v any) error {
	if d == nil || d.backend == nil {
		return errors.New("documents store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	return d.backend.Write(ctx, name, data)
}

// LoadText returns the named plain-text document and whether it was found.
func (d *Documents) LoadText(ctx context.Context, name string) (string, bool) {
	data, ok := d.read(ctx, name)
	if !ok {
		return "", false
	}

	return string(data), true
}

// SaveText overwrites the named plain-text document.
func (d *Documents) SaveText(ctx context.Context, name, text string) error {
	if d == nil || d.backend == nil {
		return errors.New("documents store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return d.backend.Write(ctx, name, []byte(text))
}

// EnsureDefaults creates every absent document with its default body. Existing
// documents are left untouched, even when corrupt.
func (d *Documents) EnsureDefaults(ctx context.Context, defaults []Default) ([]string, error) {
	if d == nil || d.backend == nil {
		return nil, errors.New("documents store is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	created := make([]string, 0, len(defaults))
	for _, def := range defaults {
		_, err := d.backend.Read(ctx, def.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("check %s: %w", def.Name, err)
		}

		if err := d.backend.Write(ctx, def.Name, def.Body); err != nil {
			return created, fmt.Errorf("create %s: %w", def.Name, err)
		}
		created = append(created, def.Name)
	}

	if len(created) > 0 {
		d.logger.WithFields(logging.Fields{
			"event":     "documents_bootstrap",
			"documents": created,
		}).Info("created missing documents")
	}

	return created, nil
}

// Mutate runs fn while holding the store lock so that load-modify-save cycles
// issued by this process do not interleave.
func (d *Documents) Mutate(fn func() error) error {
	if d == nil {
		return errors.New("documents store is not initialized")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return fn()
}

// Ping reports backend reachability.
func (d *Documents) Ping(ctx context.Context) error {
	if d == nil || d.backend == nil {
		return errors.New("documents store is not initialized")
	}

	return d.backend.Ping(ctx)
}

func (d *Documents) read(ctx context.Context, name string) ([]byte, bool) {
	if d == nil || d.backend == nil || ctx == nil {
		return nil, false
	}

	data, err := d.backend.Read(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.logger.WithFields(logging.Fields{
				"event":    "document_read_failed",
				"document": name,
			}).WithError(err).Warn("document read failed, using empty value")
		}
		return nil, false
	}

	return data, true
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
