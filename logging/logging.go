// Package logging configures the process-wide slog logger. Records are
// written one per line with a level tag coloured by grog when the output is
// a terminal that supports it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"goki.dev/grog"
)

// Setup installs a Handler writing to w as the default slog logger and
// returns it. grog.UserLevel follows level so grog's own output agrees.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	grog.UserLevel = level
	logger := slog.New(NewHandler(w, level))
	slog.SetDefault(logger)
	return logger
}

// Handler is a slog.Handler producing lines of the form
//
//	15:04:05.000 WARN message key=value ...
type Handler struct {
	mu     *sync.Mutex
	out    *termenv.Output
	level  slog.Leveler
	pre    string
	groups []string
}

func NewHandler(w io.Writer, level slog.Leveler, opts ...termenv.OutputOption) *Handler {
	return &Handler{
		mu:    &sync.Mutex{},
		out:   termenv.NewOutput(w, opts...),
		level: level,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format("15:04:05.000"))
		sb.WriteByte(' ')
	}
	sb.WriteString(h.levelTag(r.Level))
	sb.WriteByte(' ')
	if r.Message == "" {
		sb.WriteString(`""`)
	} else {
		sb.WriteString(r.Message)
	}

	sb.WriteString(h.pre)
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, prefix, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		writeAttr(&sb, prefix, a)
	}

	h2 := *h
	h2.pre = h.pre + sb.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}

// levelTag pads the level name and colours it with grog's level colours,
// unless the output cannot show colour.
func (h *Handler) levelTag(level slog.Level) string {
	tag := fmt.Sprintf("%-5s", level.String())
	if h.out.Profile == termenv.Ascii {
		return tag
	}
	return grog.LevelColor(level, tag)
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if a.Value.Kind() == slog.KindGroup && key == "" {
		// Inline group, its attrs belong to the enclosing group
		key = prefix
	} else if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(sb, key, ga)
		}
		return
	}

	sb.WriteByte(' ')
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		s = v.Duration().Round(time.Microsecond).String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = v.String()
	}

	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
