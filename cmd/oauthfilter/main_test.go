package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/oauthfilter/pkg/auth"
	"github.com/rhuss/oauthfilter/pkg/config"
)

const fixtures = `
consumers:
  - key: my_consumer
    secret: consumer_secret
tokens:
  - token: my_token
    secret: token_secret
    consumer_key: my_consumer
    authorized_at: 2024-01-01T00:00:00Z
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtures), 0o600))
	return path
}

func TestParseData(t *testing.T) {
	form, err := parseData([]string{"a=1", "b=x=y", "a=2", "empty="})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, form["a"])
	assert.Equal(t, "x=y", form.Get("b"))
	assert.Equal(t, "", form.Get("empty"))

	form, err = parseData(nil)
	require.NoError(t, err)
	assert.Nil(t, form)

	_, err = parseData([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseData([]string{"=1"})
	assert.Error(t, err)
}

func TestOpenStoreMemoryWithFixtures(t *testing.T) {
	cfg := config.Defaults().Storage
	cfg.Memory.Fixtures = writeFixtures(t)

	store, mem, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, mem)

	consumer, err := store.FindConsumerByKey(context.Background(), "my_consumer")
	require.NoError(t, err)
	assert.Equal(t, "consumer_secret", consumer.Secret)
}

func TestOpenStoreErrors(t *testing.T) {
	cfg := config.Defaults().Storage
	cfg.Memory.Fixtures = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err := openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "loading fixtures")

	cfg = config.Defaults().Storage
	cfg.Type = "mongo"
	_, _, err = openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestNewResolverHonorsDisabledSchemes(t *testing.T) {
	cfg := config.Defaults()
	store, _, err := openStore(context.Background(), cfg.Storage)
	require.NoError(t, err)

	r := newResolver(cfg.OAuth, store)
	assert.NotNil(t, r.Signed)
	assert.NotNil(t, r.Bearer)

	cfg.OAuth.OAuth2Enabled = false
	r = newResolver(cfg.OAuth, store)
	assert.NotNil(t, r.Signed)
	assert.Nil(t, r.Bearer)

	res, err := r.Resolve(context.Background(), auth.OAuth2Token{Value: "my_token", Source: auth.SourceHeader})
	require.NoError(t, err)
	assert.Equal(t, auth.Abstain, res.Decision)
}

func TestSignCommandProducesVerifiableHeader(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Memory.Fixtures = writeFixtures(t)
	store, _, err := openStore(context.Background(), cfg.Storage)
	require.NoError(t, err)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sign",
		"--consumer-key", "my_consumer", "--consumer-secret", "consumer_secret",
		"--token", "my_token", "--token-secret", "token_secret",
		"-X", "post", "-d", "status=hello world",
		"http://api.example.com/statuses?trim=1",
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	header := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(header, "OAuth "), header)

	req := httptest.NewRequest(http.MethodPost, "http://api.example.com/statuses?trim=1", strings.NewReader("status=hello+world"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", header)

	res, err := newResolver(cfg.OAuth, store).Resolve(context.Background(), auth.Extract(req))
	require.NoError(t, err)
	assert.Equal(t, auth.Yes, res.Decision, "reason: %v", res.Reason)
	assert.Equal(t, "my_token", res.Identity.Token.Value)
}

func TestServeRunsUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.Defaults()
	cfg.Server.Port = port
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Storage.Memory.Fixtures = writeFixtures(t)
	cfg.Storage.Memory.Watch = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, &cfg) }()

	base := "http://" + ln.Addr().String()
	assert.Eventually(t, func() bool {
		req, _ := http.NewRequest(http.MethodGet, base+"/protected", nil)
		req.Header.Set("Authorization", "Bearer my_token")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
