package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/config"
	"github.com/vovakirdan/pdxirc/internal/core"
)

func startTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()
	return startTestServerWith(t, core.Options{})
}

func startTestServerWith(t *testing.T, opts core.Options) (*httptest.Server, *core.Hub) {
	t.Helper()

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(opts, &disabledLogger)

	cfg := config.Default()
	cfg.HTTPAddr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	server := NewServer(hub, cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}
