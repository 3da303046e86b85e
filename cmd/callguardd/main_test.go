package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func startApp(t *testing.T, app *Application) (string, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run(ctx)
	}()

	require.Eventually(t, func() bool { return app.Address() != "" }, 2*time.Second, 10*time.Millisecond)
	_, port, err := net.SplitHostPort(app.Address())
	require.NoError(t, err)

	stop := func() error {
		cancel()
		select {
		case err := <-appErr:
			return err
		case <-time.After(5 * time.Second):
			return fmt.Errorf("application did not stop")
		}
	}
	return "http://127.0.0.1:" + port, stop
}

// TestApplication_Integration tests the full application lifecycle
func TestApplication_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	orig := log.GetLogger()
	log.SetLogger(log.NewNoopLogger())
	t.Cleanup(func() { log.SetLogger(orig) })

	feedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(feedDir, "police.txt"),
		[]byte("0330000000, 警察庁提供リストに掲載\n+44 20 7946 0999\n"), 0o644))

	t.Setenv("GUARD_PORT", fmt.Sprintf("%d", freePort(t)))
	t.Setenv("GUARD_FEED_DIR", feedDir)
	t.Setenv("GUARD_FEED_DB", filepath.Join(t.TempDir(), "mirror.db"))
	t.Setenv("GUARD_SIMULATOR_INTERVAL", "1s")
	t.Setenv("GUARD_CACHE_SIZE", "100")

	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.simulator)

	base, stop := startApp(t, app)

	resp, err := http.Post(base+"/v1/calls/evaluate", "application/json",
		strings.NewReader(`{"number":"03-3000-0000","transcript":"口座 口座"}`))
	require.NoError(t, err)
	var result struct {
		Action  string   `json:"action"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	_ = resp.Body.Close()
	assert.Equal(t, "BLOCK", result.Action)
	assert.Len(t, result.Reasons, 2)

	eventCount := func() uint64 {
		resp, err := http.Get(base + "/v1/events")
		if err != nil {
			return 0
		}
		defer resp.Body.Close()
		var events struct {
			Count uint64 `json:"count"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			return 0
		}
		return events.Count
	}
	assert.Eventually(t, func() bool { return eventCount() >= 2 }, 2*time.Second, 20*time.Millisecond,
		"startup simulator event plus the blocked call")

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, stop())
}

func TestApplication_MirrorServesWhenFeedDirDisappears(t *testing.T) {
	orig := log.GetLogger()
	log.SetLogger(log.NewNoopLogger())
	t.Cleanup(func() { log.SetLogger(orig) })

	feedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(feedDir, "police.txt"), []byte("0330000000\n"), 0o644))
	dbPath := filepath.Join(t.TempDir(), "mirror.db")

	cfg := config.DEFAULT_APP_CONFIG
	cfg.Port = freePort(t)
	cfg.FeedDir = feedDir
	cfg.FeedDB = dbPath
	cfg.DisableSimulator = true

	// First run populates the mirror.
	app, err := buildApplication(&cfg)
	require.NoError(t, err)
	assert.Nil(t, app.simulator)
	_, stop := startApp(t, app)
	require.NoError(t, stop())

	// Second run: the feed directory is gone, the mirror keeps the list alive.
	require.NoError(t, os.RemoveAll(feedDir))
	cfg.Port = freePort(t)
	app, err = buildApplication(&cfg)
	require.NoError(t, err)
	base, stop := startApp(t, app)

	resp, err := http.Get(base + "/v1/denylist")
	require.NoError(t, err)
	var list struct {
		Authority []struct {
			Number string `json:"number"`
		} `json:"authority"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	require.Len(t, list.Authority, 1)
	assert.Equal(t, "0330000000", list.Authority[0].Number)

	require.NoError(t, stop())
}

func TestBuildApplication_BadFeedDB(t *testing.T) {
	cfg := config.DEFAULT_APP_CONFIG
	cfg.FeedDB = filepath.Join(t.TempDir(), "missing", "dir", "mirror.db")
	_, err := buildApplication(&cfg)
	assert.Error(t, err)
}

func TestRun_ListenFailure(t *testing.T) {
	orig := log.GetLogger()
	log.SetLogger(log.NewNoopLogger())
	t.Cleanup(func() { log.SetLogger(orig) })

	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	cfg := config.DEFAULT_APP_CONFIG
	cfg.Port = busy.Addr().(*net.TCPAddr).Port
	cfg.DisableSimulator = true
	app, err := buildApplication(&cfg)
	require.NoError(t, err)

	err = app.Run(context.Background())
	assert.ErrorContains(t, err, "failed to listen")
}
