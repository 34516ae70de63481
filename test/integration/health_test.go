package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestHealthEndpointIgnoresInvalidCredentials(t *testing.T) {
	// An unknown token must not turn a public endpoint into an error.
	resp := getWithAuth(t, testEnv.BaseURL()+"/healthz", "Bearer unknown")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with unknown token, got %d", resp.StatusCode)
	}
}

func TestReadyEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/readyz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRequestIDIsAssigned(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	defer resp.Body.Close()

	id := resp.Header.Get("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID: %v", id, err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Generate at least one resolution.
	getWithAuth(t, testEnv.BaseURL()+"/whoami", "Bearer valid_token").Body.Close()

	body := readBody(t, getURL(t, testEnv.BaseURL()+"/metrics"))
	for _, want := range []string{
		`oauthfilter_resolutions_total{decision="yes",reason="none",scheme="oauth2"}`,
		"oauthfilter_requests_total",
		"oauthfilter_resolution_duration_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
