package render

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTeardownRunsNewestFirst(t *testing.T) {
	var order []string
	var td teardown
	for _, name := range []string{"instance", "surface", "device", "swapchain"} {
		name := name
		td.push(name, func() { order = append(order, name) })
	}
	require.Equal(t, 4, td.len())

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	td.run(log)

	require.Equal(t, []string{"swapchain", "device", "surface", "instance"}, order)
	require.Equal(t, 0, td.len())
	require.Contains(t, buf.String(), "resource=swapchain")
}

func TestTeardownRunsOnce(t *testing.T) {
	calls := 0
	var td teardown
	td.push("semaphore", func() { calls++ })

	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	td.run(log)
	td.run(log)

	require.Equal(t, 1, calls)
}

func TestTeardownEmpty(t *testing.T) {
	var td teardown
	require.NotPanics(t, func() {
		td.run(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	})
}
