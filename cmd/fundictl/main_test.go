package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/config"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
	"github.com/Bla-nqo/fundiconnect-builder/internal/routes"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/auth"
)

func startAPI(t *testing.T) (string, *routes.Services) {
	t.Helper()
	cfg := config.Config{
		AppEnv:         "test",
		JWTSecret:      "fundictl-test-secret",
		JWTExpiresMin:  60,
		CORSOrigins:    "http://localhost:3000",
		FeedRatePerSec: 5,
		FeedBurst:      20,
	}
	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub()
	go hub.Run(ctx)
	svc := routes.NewServices(memstore.New(), hub, cfg.JWTSecret, cfg.JWTExpiresMin)
	app := routes.NewApp(cfg, svc, hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		_ = app.Shutdown()
		cancel()
	})
	return "http://" + ln.Addr().String(), svc
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"fundictl"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := run()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "fundictl <command>")

	code, stdout, _ := run("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "appeal")

	code, _, stderr = run("bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command: bogus")
}

func TestRun_FlagErrors(t *testing.T) {
	t.Setenv("FUNDICTL_TOKEN", "")

	code, _, stderr := run("login", "--email", "a@example.com")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--password")

	code, _, stderr = run("jobs", "--list", "everything")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown list")

	code, _, _ = run("apply", "not-a-uuid")
	assert.Equal(t, 2, code)

	code, _, stderr = run("jobs")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not signed in")
}

func TestRun_LoginJobsAndStats(t *testing.T) {
	url, svc := startAPI(t)
	ctx := context.Background()
	_, _, err := svc.Auth.Register(ctx, auth.RegisterInput{
		FullName: "Wanjiru Kamau", Email: "wanjiru@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	code, stdout, stderr := run("stats", "--url", url)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Users: 1")

	code, _, stderr = run("login", "--url", url, "--email", "wanjiru@example.com", "--password", "wrong-pass")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Sign in failed")

	code, stdout, stderr = run("login", "--url", url, "--email", "wanjiru@example.com", "--password", "secret123")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Signed in as Wanjiru Kamau (client)")
	token := strings.TrimSpace(stdout)
	require.NotEmpty(t, token)

	code, stdout, stderr = run("jobs", "--url", url, "--token", token)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "No jobs")

	code, _, stderr = run("jobs", "--url", url, "--token", token, "--list", "assigned")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Access Denied")

	code, stdout, stderr = run("appeal", "--url", url, "--token", token)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "not restricted")

	code, _, stderr = run("rate", "--url", url, "--token", token, "--stars", "9", "7d1f7a8e-0000-4000-8000-000000000001")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Rating Required")
}
