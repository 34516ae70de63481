package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	headerWithSpaces    = `OAuth oauth_consumer_key="my_consumer", oauth_nonce="amrLDyFE2AMztx5fOYDD1OEqWps6Mc2mAR5qyO44Rj8", oauth_signature="KCSg0RUfVFUcyhrgJo580H8ey0c%3D", oauth_signature_method="HMAC-SHA1", oauth_timestamp="1295039581", oauth_version="1.0"`
	headerWithoutSpaces = `OAuth oauth_consumer_key="my_consumer",oauth_nonce="amrLDyFE2AMztx5fOYDD1OEqWps6Mc2mAR5qyO44Rj8",oauth_signature="KCSg0RUfVFUcyhrgJo580H8ey0c%3D",oauth_signature_method="HMAC-SHA1",oauth_timestamp="1295039581",oauth_version="1.0"`
)

func requestWithHeader(h string) *http.Request {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	if h != "" {
		r.Header.Set("Authorization", h)
	}
	return r
}

func formRequest(target string, form url.Values) *http.Request {
	r := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestExtractNoCredential(t *testing.T) {
	assert.Equal(t, None{Reason: ErrNoCredential}, Extract(requestWithHeader("")))
}

func TestExtractHeaderTokens(t *testing.T) {
	for _, scheme := range []string{"Bearer", "OAuth", "Token"} {
		t.Run(scheme, func(t *testing.T) {
			c := Extract(requestWithHeader(scheme + " valid_token"))
			assert.Equal(t, OAuth2Token{Value: "valid_token", Source: SourceHeader}, c)
		})
	}
}

func TestExtractMalformedHeader(t *testing.T) {
	for _, h := range []string{
		"Basic dXNlcjpwYXNz",
		"bearer valid_token",
		"Bearer",
		"Bearer  valid_token",
		"Bearer valid token",
		`OAuth oauth_consumer_key="my_consumer"`,
		`OAuth oauth_consumer_key="a", oauth_consumer_key="b"`,
		`OAuth oauth_consumer_key="unterminated`,
	} {
		t.Run(h, func(t *testing.T) {
			assert.Equal(t, None{Reason: ErrMalformedHeader}, Extract(requestWithHeader(h)))
		})
	}
}

func TestExtractMalformedHeaderFallsThroughToParams(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/?access_token=valid_token", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	assert.Equal(t, OAuth2Token{Value: "valid_token", Source: SourceQuery}, Extract(r))
}

func TestExtractHeaderBeatsParams(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/?access_token=from_query", nil)
	r.Header.Set("Authorization", "Bearer from_header")

	assert.Equal(t, OAuth2Token{Value: "from_header", Source: SourceHeader}, Extract(r))
}

func TestExtractQueryParams(t *testing.T) {
	for _, name := range []string{"bearer_token", "access_token", "oauth_token"} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://example.com/?"+name+"=valid_token", nil)
			assert.Equal(t, OAuth2Token{Value: "valid_token", Source: SourceQuery}, Extract(r))
		})
	}
}

func TestExtractParamPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/?oauth_token=c&access_token=b&bearer_token=a", nil)
	assert.Equal(t, OAuth2Token{Value: "a", Source: SourceQuery}, Extract(r))

	r = httptest.NewRequest("GET", "http://example.com/?oauth_token=c&access_token=b", nil)
	assert.Equal(t, OAuth2Token{Value: "b", Source: SourceQuery}, Extract(r))
}

func TestExtractFormParams(t *testing.T) {
	for _, name := range []string{"bearer_token", "access_token", "oauth_token"} {
		t.Run(name, func(t *testing.T) {
			r := formRequest("http://example.com/", url.Values{name: {"valid_token"}, "other": {"x"}})
			assert.Equal(t, OAuth2Token{Value: "valid_token", Source: SourceForm}, Extract(r))

			// The body is still readable downstream.
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "x", r.PostForm.Get("other"))
		})
	}
}

func TestExtractQueryBeatsForm(t *testing.T) {
	r := formRequest("http://example.com/?oauth_token=from_query", url.Values{"bearer_token": {"from_form"}})
	assert.Equal(t, OAuth2Token{Value: "from_query", Source: SourceQuery}, Extract(r))
}

func TestExtractIgnoresNonFormBodies(t *testing.T) {
	r := httptest.NewRequest("POST", "http://example.com/", strings.NewReader("access_token=valid_token"))
	r.Header.Set("Content-Type", "text/plain")

	assert.Equal(t, None{Reason: ErrNoCredential}, Extract(r))

	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, "access_token=valid_token", string(body))
}

func TestExtractSignedOAuthTokenParamIsNotBearer(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/?oauth_token=t&oauth_signature=sig", nil)
	assert.Equal(t, None{Reason: ErrNoCredential}, Extract(r))

	r = httptest.NewRequest("GET", "http://example.com/?access_token=t&oauth_signature=sig", nil)
	assert.Equal(t, OAuth2Token{Value: "t", Source: SourceQuery}, Extract(r))
}

func TestExtractEmptyParamIsAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/?bearer_token=&access_token=valid_token", nil)
	assert.Equal(t, OAuth2Token{Value: "valid_token", Source: SourceQuery}, Extract(r))
}

func TestExtractOAuth1Header(t *testing.T) {
	with, ok := Extract(requestWithHeader(headerWithSpaces)).(OAuth1Signed)
	require.True(t, ok)
	without, ok := Extract(requestWithHeader(headerWithoutSpaces)).(OAuth1Signed)
	require.True(t, ok)

	assert.Equal(t, with, without, "whitespace after commas must not matter")
	assert.Equal(t, "my_consumer", with.ConsumerKey())
	assert.Equal(t, "KCSg0RUfVFUcyhrgJo580H8ey0c=", with.Signature())
	assert.Equal(t, "HMAC-SHA1", with.SignatureMethod())
	_, hasToken := with.Token()
	assert.False(t, hasToken)

	assert.Equal(t, "GET", with.Request.Method)
	assert.Equal(t, "http://example.com/", with.Request.URI)
	assert.NotContains(t, with.Request.Params, "oauth_signature")
	assert.Equal(t, "my_consumer", with.Request.Params.Get("oauth_consumer_key"))
}

func TestExtractOAuth1HeaderWithToken(t *testing.T) {
	h := `OAuth realm="Photos", oauth_consumer_key="my_consumer",	oauth_token="my_token", oauth_nonce="n", oauth_signature="s", oauth_signature_method="HMAC-SHA1", oauth_timestamp="1", oauth_version="1.0"`
	c, ok := Extract(requestWithHeader(h)).(OAuth1Signed)
	require.True(t, ok)

	tok, ok := c.Token()
	assert.True(t, ok)
	assert.Equal(t, "my_token", tok)
	assert.NotContains(t, c.Params, "realm")
	assert.NotContains(t, c.Request.Params, "realm")
}

func TestParseAuthParams(t *testing.T) {
	tests := []struct {
		in      string
		want    map[string]string
		wantErr bool
	}{
		{in: `a="1",b="2"`, want: map[string]string{"a": "1", "b": "2"}},
		{in: `a="1",   b="2"`, want: map[string]string{"a": "1", "b": "2"}},
		{in: `a="1" , b="2",`, want: map[string]string{"a": "1", "b": "2"}},
		{in: `a="x%20y%2B"`, want: map[string]string{"a": "x y+"}},
		{in: `a=""`, want: map[string]string{"a": ""}},
		{in: ``, wantErr: true},
		{in: `a=1`, wantErr: true},
		{in: `a="1" b="2"`, wantErr: true},
		{in: `="1"`, wantErr: true},
		{in: `a="%zz"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAuthParams(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "none", Scheme(None{}))
	assert.Equal(t, "oauth1", Scheme(OAuth1Signed{}))
	assert.Equal(t, "oauth2", Scheme(OAuth2Token{}))
}
