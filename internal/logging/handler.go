package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// TargetKey is the slog attribute that sets a record's target.
const TargetKey = "target"

// Handler adapts a Sink to slog. Attributes other than TargetKey are
// appended to the message as key=value pairs; groups qualify keys with
// dots.
type Handler struct {
	sink   *Sink
	target string
	prefix string // Dotted group path including the trailing dot
	attrs  string // Pre-rendered attributes from WithAttrs
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a Handler emitting to sink with the given default
// target.
func NewHandler(sink *Sink, target string) *Handler {
	if target == "" {
		target = DefaultTarget
	}
	return &Handler{sink: sink, target: target}
}

// Enabled is a cheap pre-check against the most verbose level the filter
// allows. Per-target filtering happens in Emit once the target is known.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.sink != nil && levelFromSlog(level) <= h.sink.Filter().MaxLevel()
}

// Handle renders the record and emits it.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	if h.sink == nil {
		return nil
	}
	target := h.target
	var sb strings.Builder
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == TargetKey {
			target = a.Value.Resolve().String()
			return true
		}
		appendAttr(&sb, h.prefix, a)
		return true
	})

	h.sink.Emit(levelFromSlog(r.Level), target, sb.String())
	return nil
}

// WithAttrs returns a Handler that includes attrs in every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == TargetKey {
			next.target = a.Value.Resolve().String()
			continue
		}
		appendAttr(&sb, h.prefix, a)
	}
	next.attrs = sb.String()
	return &next
}

// WithGroup returns a Handler that qualifies later attribute keys.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if v.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			appendAttr(sb, groupPrefix, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(quoteIfNeeded(v.String()))
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}
