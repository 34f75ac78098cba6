// Package json provides JSON serialization backed by goccy/go-json with pooled
// buffers. It is the single codec used for protocol messages, config and API
// payloads.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// RawMessage is a raw encoded JSON value that is passed through untouched
type RawMessage = gojson.RawMessage

// Number is a JSON number literal kept as text
type Number = gojson.Number

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// NewEncoder returns an encoder that does not escape HTML, matching what the
// host pipeline expects on the wire
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// NewDecoder returns a decoder that keeps numbers as json.Number
func NewDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// Marshal is a drop-in replacement for encoding/json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Valid reports whether data is a valid JSON encoding
func Valid(data []byte) bool {
	return gojson.Valid(data)
}

// Compact returns data with insignificant whitespace removed
func Compact(data []byte) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := gojson.Compact(buf, data); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// MarshalLine encodes v as a single line terminated by '\n' into a pooled
// buffer. The caller must return the buffer with PutBuffer.
func MarshalLine(v interface{}) (*bytes.Buffer, error) {
	buf := GetBuffer()
	if err := NewEncoder(buf).Encode(v); err != nil {
		PutBuffer(buf)
		return nil, err
	}
	return buf, nil
}
