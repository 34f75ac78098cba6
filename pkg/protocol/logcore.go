package protocol

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// NewLogCore returns a zap core that writes every entry at or above enab as a
// LOG message. Structured fields are appended to the text as a JSON object.
func NewLogCore(emitter *Emitter, enab zapcore.LevelEnabler) zapcore.Core {
	return &logCore{
		LevelEnabler: enab,
		enc: zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
		}),
		emitter: emitter,
	}
}

type logCore struct {
	zapcore.LevelEnabler
	enc     zapcore.Encoder
	emitter *Emitter
}

func (c *logCore) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for i := range fields {
		fields[i].AddTo(enc)
	}
	return &logCore{LevelEnabler: c.LevelEnabler, enc: enc, emitter: c.emitter}
}

func (c *logCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *logCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	// Only fields are encoded: every entry key in the config is empty.
	buf, err := c.enc.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return err
	}
	encoded := strings.TrimSpace(buf.String())
	buf.Free()

	text := ent.Message
	if encoded != "" && encoded != "{}" {
		text += " " + encoded
	}
	return c.emitter.EmitLog(levelName(ent.Level), text)
}

func (c *logCore) Sync() error {
	return nil
}

func levelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return LogLevelDebug
	case zapcore.InfoLevel:
		return LogLevelInfo
	case zapcore.WarnLevel:
		return LogLevelWarn
	case zapcore.ErrorLevel:
		return LogLevelError
	default:
		return LogLevelFatal
	}
}
