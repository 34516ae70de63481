package auth

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/rhuss/oauthfilter/pkg/debug"
	"github.com/rhuss/oauthfilter/pkg/signature"
)

// maxFormBytes caps how much of a url-encoded body is read for parameters.
const maxFormBytes = 10 << 20

// Parameter names searched for OAuth 2.0 tokens, in precedence order.
var tokenParams = []string{"bearer_token", "access_token", "oauth_token"}

// Protocol parameters an OAuth 1.0 Authorization header must carry.
var requiredOAuth1Params = []string{
	"oauth_consumer_key",
	"oauth_signature",
	"oauth_signature_method",
	"oauth_nonce",
	"oauth_timestamp",
	"oauth_version",
}

// Candidate is a credential extracted from a request. It is exactly one of
// None, OAuth1Signed or OAuth2Token.
type Candidate interface {
	candidate()
}

// None means the request carries no usable credential.
type None struct {
	// Reason is ErrNoCredential, or ErrMalformedHeader when an Authorization
	// header was present but could not be used.
	Reason error
}

// OAuth1Signed is an OAuth 1.0 request signed by a consumer and optionally
// carrying a token.
type OAuth1Signed struct {
	// Params holds the decoded protocol parameters from the header.
	Params map[string]string

	// Request is the normalized request the signature covers.
	Request signature.Request
}

// Source identifies where an OAuth 2.0 token was found.
type Source string

const (
	SourceHeader Source = "header"
	SourceQuery  Source = "query"
	SourceForm   Source = "form"
)

// OAuth2Token is an opaque OAuth 2.0 token.
type OAuth2Token struct {
	Value  string
	Source Source
}

func (None) candidate()         {}
func (OAuth1Signed) candidate() {}
func (OAuth2Token) candidate()  {}

// ConsumerKey returns oauth_consumer_key.
func (c OAuth1Signed) ConsumerKey() string { return c.Params["oauth_consumer_key"] }

// Token returns oauth_token and whether it was present. A request without
// a token is two-legged.
func (c OAuth1Signed) Token() (string, bool) {
	v, ok := c.Params["oauth_token"]
	return v, ok
}

// Signature returns the provided oauth_signature.
func (c OAuth1Signed) Signature() string { return c.Params["oauth_signature"] }

// SignatureMethod returns oauth_signature_method.
func (c OAuth1Signed) SignatureMethod() string { return c.Params["oauth_signature_method"] }

// Extract scans r for a credential. The Authorization header takes
// precedence over query parameters, which take precedence over url-encoded
// form parameters. A header that cannot be used falls through to the
// parameter search.
//
// When the body is read for form parameters it is restored, so downstream
// handlers can still consume it.
func Extract(r *http.Request) Candidate {
	form := readForm(r)

	reason := ErrNoCredential
	if h := r.Header.Get("Authorization"); h != "" {
		c, err := fromHeader(r, h, form)
		if err == nil {
			return c
		}
		debug.Log("auth", "ignoring authorization header", "error", err)
		reason = ErrMalformedHeader
	}

	if c, ok := fromParams(r.URL.Query(), SourceQuery); ok {
		return c
	}
	if c, ok := fromParams(form, SourceForm); ok {
		return c
	}
	return None{Reason: reason}
}

func fromHeader(r *http.Request, h string, form url.Values) (Candidate, error) {
	scheme, rest, ok := strings.Cut(h, " ")
	if !ok {
		return nil, fmt.Errorf("%w: missing credentials", ErrMalformedHeader)
	}

	switch scheme {
	case "Bearer", "Token":
		return headerToken(rest)
	case "OAuth":
		if !strings.Contains(rest, `="`) {
			return headerToken(rest)
		}
		params, err := parseAuthParams(rest)
		if err != nil {
			return nil, err
		}
		for _, k := range requiredOAuth1Params {
			if _, ok := params[k]; !ok {
				return nil, fmt.Errorf("%w: missing %s", ErrMalformedHeader, k)
			}
		}
		protocol := make(url.Values, len(params))
		for k, v := range params {
			protocol.Set(k, v)
		}
		return OAuth1Signed{
			Params:  params,
			Request: signature.NewRequest(r, protocol, form),
		}, nil
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedHeader, scheme)
}

// headerToken accepts a single unquoted token with no surrounding whitespace.
func headerToken(v string) (Candidate, error) {
	if v == "" || strings.ContainsAny(v, " \t\r\n") {
		return nil, fmt.Errorf("%w: token must be a single word", ErrMalformedHeader)
	}
	return OAuth2Token{Value: v, Source: SourceHeader}, nil
}

// fromParams looks for a token parameter. oauth_token is skipped when the
// same parameter set also carries oauth_signature, since it then belongs to
// an OAuth 1.0 request.
func fromParams(vals url.Values, src Source) (Candidate, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	_, signed := vals["oauth_signature"]
	for _, name := range tokenParams {
		if signed && name == "oauth_token" {
			continue
		}
		if v := vals.Get(name); v != "" {
			return OAuth2Token{Value: v, Source: src}, true
		}
	}
	return nil, false
}

// parseAuthParams parses the comma separated key="value" list of an OAuth
// Authorization header. Spaces and tabs are allowed around commas. Values
// are percent-decoded and duplicate keys are rejected.
func parseAuthParams(s string) (map[string]string, error) {
	params := make(map[string]string)
	i := 0
	for {
		i = skipSpace(s, i)
		if i == len(s) {
			break
		}

		start := i
		for i < len(s) && s[i] != '=' && s[i] != ',' && s[i] != '"' && s[i] != ' ' && s[i] != '\t' {
			i++
		}
		key := s[start:i]
		if key == "" || i+1 >= len(s) || s[i] != '=' || s[i+1] != '"' {
			return nil, fmt.Errorf("%w: expected key=\"value\" at offset %d", ErrMalformedHeader, start)
		}
		i += 2

		end := strings.IndexByte(s[i:], '"')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated value for %s", ErrMalformedHeader, key)
		}
		raw := s[i : i+end]
		i += end + 1

		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %s", ErrMalformedHeader, key)
		}
		val, err := signature.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad encoding for %s", ErrMalformedHeader, key)
		}
		params[key] = val

		i = skipSpace(s, i)
		if i == len(s) {
			break
		}
		if s[i] != ',' {
			return nil, fmt.Errorf("%w: expected ',' at offset %d", ErrMalformedHeader, i)
		}
		i++
	}

	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no parameters", ErrMalformedHeader)
	}
	delete(params, "realm")
	return params, nil
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// readForm returns the parameters of a url-encoded body, or nil. The body
// is replaced with an equivalent reader.
func readForm(r *http.Request) url.Values {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || ct != "application/x-www-form-urlencoded" {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
	r.Body = readCloser{io.MultiReader(bytes.NewReader(data), r.Body), r.Body}
	if err != nil {
		slog.Debug("reading form body failed", "error", err)
		return nil
	}
	if len(data) > maxFormBytes {
		debug.Log("auth", "form body too large, skipping parameters", "limit", maxFormBytes)
		return nil
	}

	form, err := url.ParseQuery(string(data))
	if err != nil {
		debug.Log("auth", "invalid form body", "error", err)
		return nil
	}
	return form
}

// readCloser restores a partially read body while keeping the original
// Close.
type readCloser struct {
	io.Reader
	io.Closer
}
