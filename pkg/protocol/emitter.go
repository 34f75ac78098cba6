package protocol

import (
	"io"
	"sync"
	"time"

	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
	"github.com/ajitpratap0/source-coda/pkg/metrics"
)

// Emitter writes messages to the host, one compact JSON object per line.
// It is safe for concurrent use.
type Emitter struct {
	mu     sync.Mutex
	w      io.Writer
	counts map[Type]int
	now    func() time.Time
}

// NewEmitter returns an emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:      w,
		counts: make(map[Type]int),
		now:    time.Now,
	}
}

// Emit writes msg followed by a newline. The line is written with a single
// Write call so concurrent emitters never interleave.
func (e *Emitter) Emit(msg *Message) error {
	buf, err := json.MarshalLine(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode message").
			WithDetail("type", string(msg.Type))
	}
	defer json.PutBuffer(buf)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write message").
			WithDetail("type", string(msg.Type))
	}
	e.counts[msg.Type]++
	metrics.MessagesEmitted.WithLabelValues(string(msg.Type)).Inc()
	return nil
}

// EmitSpec writes a SPEC message around the raw specification document.
func (e *Emitter) EmitSpec(spec json.RawMessage) error {
	return e.Emit(&Message{Type: TypeSpec, Spec: spec})
}

// EmitConnectionStatus writes a CONNECTION_STATUS message.
func (e *Emitter) EmitConnectionStatus(status ConnectionStatus) error {
	return e.Emit(&Message{Type: TypeConnectionStatus, ConnectionStatus: &status})
}

// EmitCatalog writes a CATALOG message.
func (e *Emitter) EmitCatalog(catalog Catalog) error {
	return e.Emit(&Message{Type: TypeCatalog, Catalog: &catalog})
}

// EmitRecord writes a RECORD message stamped with the current time in epoch
// milliseconds.
func (e *Emitter) EmitRecord(stream string, data json.RawMessage) error {
	return e.EmitRecordAt(stream, data, e.now())
}

// EmitRecordAt writes a RECORD message stamped with at. A zero at means now.
func (e *Emitter) EmitRecordAt(stream string, data json.RawMessage, at time.Time) error {
	if at.IsZero() {
		at = e.now()
	}
	err := e.Emit(&Message{
		Type: TypeRecord,
		Record: &RecordMessage{
			Stream:    stream,
			Data:      data,
			EmittedAt: at.UnixMilli(),
		},
	})
	if err == nil {
		metrics.RecordsEmitted.WithLabelValues(stream).Inc()
	}
	return err
}

// EmitLog writes a LOG message.
func (e *Emitter) EmitLog(level, message string) error {
	return e.Emit(&Message{Type: TypeLog, Log: &LogMessage{Level: level, Message: message}})
}

// Count returns how many messages of type t were written.
func (e *Emitter) Count(t Type) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[t]
}

// Counts returns a snapshot of messages written per type.
func (e *Emitter) Counts() map[Type]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[Type]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}
