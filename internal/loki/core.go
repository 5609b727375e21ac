package loki

import (
	"go.uber.org/zap/zapcore"
)

// zapCore adapts Client into a zapcore.Core so error-level log entries
// are forwarded to Loki in addition to wherever the primary core writes
// them (stdout, in cmd/extraction-server). Built with zapcore.NewTee,
// never as a replacement core.
type zapCore struct {
	zapcore.LevelEnabler
	client *Client
	fields []zapcore.Field
	static map[string]string
}

// NewCore wraps client as a zapcore.Core that ships entries at or above
// enab to Loki. Pair with zap.New(zapcore.NewTee(primaryCore, loki.NewCore(...))).
func NewCore(client *Client, enab zapcore.LevelEnabler, staticLabels map[string]string) zapcore.Core {
	return &zapCore{LevelEnabler: enab, client: client, static: staticLabels}
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &zapCore{LevelEnabler: c.LevelEnabler, client: c.client, fields: merged, static: c.static}
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	labels := map[string]string{"level": ent.Level.String()}
	for k, v := range c.static {
		labels[k] = v
	}

	return c.client.Push(Batch{Entries: []Entry{{
		Timestamp: ent.Time,
		Line:      ent.Message,
		Labels:    labels,
	}}})
}

func (c *zapCore) Sync() error { return nil }
