package logging

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"testing/slogtest"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"goki.dev/grog"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(buf, level, termenv.WithProfile(termenv.Ascii)))
}

func TestHandlerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")
	logger.Error("also shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "WARN  shown")
	require.Contains(t, lines[1], "ERROR also shown")
}

func TestHandlerFormatsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelDebug).
		With("device", "Fake GPU").
		WithGroup("frame")

	logger.Info("presented", "index", 2, "took", 1500*time.Microsecond)

	out := buf.String()
	require.Contains(t, out, "INFO  presented")
	require.Contains(t, out, ` device="Fake GPU"`)
	require.Contains(t, out, "frame.index=2")
	require.Contains(t, out, "frame.took=1.5ms")
	require.NotContains(t, out, "\x1b[")
}

func TestHandlerExpandsGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelDebug)

	logger.LogAttrs(context.Background(), slog.LevelInfo, "swapchain",
		slog.Group("extent", slog.Int("width", 800), slog.Int("height", 600)))

	require.Contains(t, buf.String(), "extent.width=800 extent.height=600")
}

func TestHandlerInlinesEmptyGroupKey(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelDebug).WithGroup("frame")

	logger.Info("presented", slog.Group("", slog.Int("index", 1)))
	logger.Info("top level", slog.Group("", slog.Int("index", 2)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasSuffix(lines[0], " presented frame.index=1"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], " top level frame.index=2"), lines[1])
	require.NotContains(t, buf.String(), "..")

	buf.Reset()
	newTestLogger(&buf, slog.LevelDebug).Info("plain", slog.Group("", slog.Int("index", 3)))
	require.True(t, strings.HasSuffix(strings.TrimSpace(buf.String()), " plain index=3"), buf.String())
}

var (
	lineRe = regexp.MustCompile(`^(?:(\d\d:\d\d:\d\d\.\d{3}) )?(\S+)\s+(\S+)(.*)$`)
	attrRe = regexp.MustCompile(`(\S+?)=("(?:[^"\\]|\\.)*"|\S*)`)
)

// parseLine turns one handler line back into the nested map form
// slogtest.TestHandler expects. Dotted keys become nested groups.
func parseLine(t *testing.T, line string) map[string]any {
	m := lineRe.FindStringSubmatch(line)
	require.NotNil(t, m, line)

	rec := map[string]any{}
	if m[1] != "" {
		rec[slog.TimeKey] = m[1]
	}
	rec[slog.LevelKey] = m[2]
	rec[slog.MessageKey] = strings.Trim(m[3], `"`)

	for _, kv := range attrRe.FindAllStringSubmatch(m[4], -1) {
		value := kv[2]
		if strings.HasPrefix(value, `"`) {
			var err error
			value, err = strconv.Unquote(value)
			require.NoError(t, err)
		}

		path := strings.Split(kv[1], ".")
		group := rec
		for _, name := range path[:len(path)-1] {
			sub, ok := group[name].(map[string]any)
			if !ok {
				sub = map[string]any{}
				group[name] = sub
			}
			group = sub
		}
		group[path[len(path)-1]] = value
	}
	return rec
}

func TestHandlerConformance(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, slog.LevelDebug, termenv.WithProfile(termenv.Ascii))

	err := slogtest.TestHandler(h, func() []map[string]any {
		var records []map[string]any
		for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
			if line == "" {
				continue
			}
			records = append(records, parseLine(t, line))
		}
		return records
	})
	require.NoError(t, err)
}

func TestSetupInstallsDefault(t *testing.T) {
	previous := slog.Default()
	previousLevel := grog.UserLevel
	defer func() {
		slog.SetDefault(previous)
		grog.UserLevel = previousLevel
	}()

	var buf bytes.Buffer
	logger := Setup(&buf, slog.LevelInfo)
	require.Same(t, logger, slog.Default())

	slog.Info("through default")
	require.Contains(t, buf.String(), "through default")
	require.Equal(t, slog.LevelInfo, grog.UserLevel)
}
