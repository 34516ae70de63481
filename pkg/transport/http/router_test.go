package http

import (
	"context"
	"encoding/json"
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/auth"
	"github.com/rhuss/oauthfilter/pkg/auth/oauth1"
	"github.com/rhuss/oauthfilter/pkg/auth/oauth2"
	"github.com/rhuss/oauthfilter/pkg/signature"
	"github.com/rhuss/oauthfilter/pkg/storage/memory"
	"github.com/rhuss/oauthfilter/pkg/transport"
)

type failingHealth struct{}

func (failingHealth) HealthCheck(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, metricsPath string) (gohttp.Handler, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	store := memory.New()
	require.NoError(t, store.SaveConsumer(ctx, &api.Consumer{Key: "my_consumer", Secret: "consumer_secret"}))
	require.NoError(t, store.SaveToken(ctx, &api.Token{
		Value: "my_token", Secret: "token_secret", Kind: api.TokenKindAccess, ConsumerKey: "my_consumer", AuthorizedAt: &now,
	}))

	router := NewRouter(RouterConfig{
		Resolver: &auth.Resolver{
			Signed: oauth1.New(store, nil),
			Bearer: oauth2.New(store),
		},
		Health:        store,
		Realm:         "Photos",
		LookupTimeout: time.Second,
		MetricsPath:   metricsPath,
	})
	return router, store
}

func serve(h gohttp.Handler, r *gohttp.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeEcho(t *testing.T, rec *httptest.ResponseRecorder) auth.Echo {
	t.Helper()
	var e auth.Echo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func TestRouterHealthz(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	rec := serve(router, httptest.NewRequest(gohttp.MethodGet, "/healthz", nil))
	assert.Equal(t, gohttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(transport.RequestIDHeader))
}

func TestRouterReadyz(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")
	rec := serve(router, httptest.NewRequest(gohttp.MethodGet, "/readyz", nil))
	assert.Equal(t, gohttp.StatusOK, rec.Code)

	failing := NewRouter(RouterConfig{Resolver: &auth.Resolver{}, Health: failingHealth{}})
	rec = serve(failing, httptest.NewRequest(gohttp.MethodGet, "/readyz", nil))
	assert.Equal(t, gohttp.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "service_unavailable")
}

func TestRouterWhoamiAnonymous(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	rec := serve(router, httptest.NewRequest(gohttp.MethodGet, "/whoami", nil))
	require.Equal(t, gohttp.StatusOK, rec.Code)
	assert.Equal(t, auth.Echo{}, decodeEcho(t, rec))
}

func TestRouterWhoamiBearer(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	req := httptest.NewRequest(gohttp.MethodPost, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer my_token")
	rec := serve(router, req)

	require.Equal(t, gohttp.StatusOK, rec.Code)
	e := decodeEcho(t, rec)
	assert.Equal(t, "my_token", e.Token)
	assert.Equal(t, "my_consumer", e.ClientApplication)
	assert.Equal(t, auth.Version2, e.Version)
	assert.Equal(t, []auth.Strategy{auth.StrategyOAuth20Token, auth.StrategyToken}, e.Strategies)
}

func TestRouterWhoamiSigned(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	client := &signature.Client{
		ConsumerKey: "my_consumer", ConsumerSecret: "consumer_secret",
		Token: "my_token", TokenSecret: "token_secret",
	}
	header, err := client.Authorize(gohttp.MethodGet, "http://example.com/whoami", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(gohttp.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", header)
	rec := serve(router, req)

	require.Equal(t, gohttp.StatusOK, rec.Code)
	e := decodeEcho(t, rec)
	assert.Equal(t, "my_token", e.Token)
	assert.Equal(t, "my_consumer", e.ClientApplication)
	assert.Equal(t, auth.Version1, e.Version)
	assert.Contains(t, e.Strategies, auth.StrategyOAuth10AccessToken)
}

func TestRouterProtected(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	rec := serve(router, httptest.NewRequest(gohttp.MethodGet, "/protected", nil))
	assert.Equal(t, gohttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, `OAuth realm="Photos"`, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(gohttp.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	rec = serve(router, req)
	assert.Equal(t, gohttp.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(gohttp.MethodGet, "/protected?access_token=my_token", nil)
	rec = serve(router, req)
	require.Equal(t, gohttp.StatusOK, rec.Code)
	assert.Equal(t, "my_token", decodeEcho(t, rec).Token)
}

func TestRouterProtectedRejectsTwoLegged(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	client := &signature.Client{ConsumerKey: "my_consumer", ConsumerSecret: "consumer_secret"}
	header, err := client.Authorize(gohttp.MethodGet, "http://example.com/protected", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(gohttp.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", header)
	rec := serve(router, req)
	assert.Equal(t, gohttp.StatusUnauthorized, rec.Code)
}

func TestRouterMetrics(t *testing.T) {
	router, _ := newTestRouter(t, "/metrics")

	req := httptest.NewRequest(gohttp.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer my_token")
	serve(router, req)

	rec := serve(router, httptest.NewRequest(gohttp.MethodGet, "/metrics", nil))
	require.Equal(t, gohttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oauthfilter_resolutions_total")
	assert.Contains(t, rec.Body.String(), "oauthfilter_requests_total")
}

func TestRouterMetricsDisabled(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := serve(router, httptest.NewRequest(gohttp.MethodGet, "/metrics", nil))
	assert.Equal(t, gohttp.StatusNotFound, rec.Code)
}

func TestRouterStoreFailureIs503(t *testing.T) {
	router := NewRouter(RouterConfig{
		Resolver: &auth.Resolver{Bearer: brokenBearer{}},
	})

	req := httptest.NewRequest(gohttp.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := serve(router, req)
	assert.Equal(t, gohttp.StatusServiceUnavailable, rec.Code)
}

type brokenBearer struct{}

func (brokenBearer) AuthenticateToken(context.Context, auth.OAuth2Token) (auth.Result, error) {
	return auth.Result{}, errors.New("store unreachable")
}
