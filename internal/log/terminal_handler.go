package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// palette holds the colours used by the terminal handler.
type palette struct {
	dim   *color.Color
	bold  *color.Color
	debug *color.Color
	info  *color.Color
	warn  *color.Color
	error *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		dim:   mk(color.Faint),
		bold:  mk(color.Bold),
		debug: mk(color.FgCyan),
		info:  mk(color.FgGreen),
		warn:  mk(color.FgYellow),
		error: mk(color.FgRed),
	}
}

// TerminalHandler formats log records as coloured terminal output.
//
// Output format:
//
//	15:04:05.000 INF server started port=8080
type TerminalHandler struct {
	writer  io.Writer
	level   slog.Leveler
	attrs   []boundAttr
	groups  []string
	colours palette
	mu      *sync.Mutex
}

// boundAttr is an attribute added by WithAttrs, qualified by the groups
// open at the time.
type boundAttr struct {
	groups []string
	attr   slog.Attr
}

// newTerminalHandler colours output only when w is a terminal file and
// NO_COLOR is unset.
func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *TerminalHandler {
	f, isFile := w.(*os.File)
	enabled := isFile && !color.NoColor && (f == os.Stdout || f == os.Stderr)
	return newTerminalHandlerWithColour(w, opts, enabled)
}

func newTerminalHandlerWithColour(w io.Writer, opts *slog.HandlerOptions, enabled bool) *TerminalHandler {
	var level slog.Leveler
	if opts != nil && opts.Level != nil {
		level = opts.Level
	} else {
		level = slog.LevelInfo
	}
	return &TerminalHandler{
		writer:  w,
		level:   level,
		colours: newPalette(enabled),
		mu:      &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats a log record and writes it as a single line.
func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(256)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(h.colours.dim.Sprint(ts.Format("15:04:05.000")))
	buf.WriteByte(' ')

	c, label := h.levelStyle(r.Level)
	buf.WriteString(c.Sprint(label))
	buf.WriteByte(' ')

	buf.WriteString(h.colours.bold.Sprint(r.Message))

	for _, b := range h.attrs {
		h.appendAttr(&buf, b.attr, b.groups)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a, h.groups)
		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler carrying attrs on every record.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]boundAttr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	for _, a := range attrs {
		merged = append(merged, boundAttr{groups: h.groups, attr: a})
	}
	clone := *h
	clone.attrs = merged
	return &clone
}

// WithGroup returns a new handler that prefixes attribute keys with name.
func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	extended := make([]string, len(h.groups)+1)
	copy(extended, h.groups)
	extended[len(h.groups)] = name
	clone := *h
	clone.groups = extended
	return &clone
}

func (h *TerminalHandler) levelStyle(level slog.Level) (*color.Color, string) {
	switch {
	case level < slog.LevelInfo:
		return h.colours.debug, "DBG"
	case level < slog.LevelWarn:
		return h.colours.info, "INF"
	case level < slog.LevelError:
		return h.colours.warn, "WRN"
	default:
		return h.colours.error, "ERR"
	}
}

func (h *TerminalHandler) appendAttr(buf *bytes.Buffer, a slog.Attr, groups []string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		prefix := groups
		if a.Key != "" {
			prefix = make([]string, len(groups)+1)
			copy(prefix, groups)
			prefix[len(groups)] = a.Key
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, ga, prefix)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + a.Key
	}

	buf.WriteByte(' ')
	buf.WriteString(h.colours.dim.Sprint(key + "="))
	buf.WriteString(formatAttrValue(a.Value))
}

func formatAttrValue(v slog.Value) string {
	if v.Kind() == slog.KindString {
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"\\") {
			return fmt.Sprintf("%q", s)
		}
		return s
	}
	return v.String()
}
