package output

import (
	"io"
	"sync"

	"go.uber.org/zap"
)

// Tee writes to a primary writer and copies to an archive. Archive failures
// never fail a write: the first one is logged and the archive is dropped.
type Tee struct {
	primary io.Writer
	logger  *zap.Logger

	mu      sync.Mutex
	archive io.WriteCloser
	failed  error
}

// NewTee creates a tee. archive may be nil.
func NewTee(primary io.Writer, archive io.WriteCloser, logger *zap.Logger) *Tee {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tee{primary: primary, archive: archive, logger: logger}
}

// Write implements io.Writer
func (t *Tee) Write(p []byte) (int, error) {
	n, err := t.primary.Write(p)
	if err != nil {
		return n, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.archive != nil && t.failed == nil {
		if _, err := t.archive.Write(p); err != nil {
			t.failed = err
			t.logger.Warn("archive write failed, archiving disabled", zap.Error(err))
		}
	}
	return n, nil
}

// Close finishes the archive. It returns the first archive error, if any.
func (t *Tee) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.archive == nil {
		return t.failed
	}
	err := t.archive.Close()
	t.archive = nil
	if t.failed != nil {
		return t.failed
	}
	return err
}
