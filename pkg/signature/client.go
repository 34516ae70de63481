package signature

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/oauthfilter/pkg/api"
)

// Client signs outgoing requests and renders the OAuth Authorization header.
type Client struct {
	ConsumerKey    string
	ConsumerSecret string

	// Token and TokenSecret are optional. Leaving Token empty produces a
	// two-legged request.
	Token       string
	TokenSecret string

	// Realm, when set, is emitted as the first header parameter.
	Realm string

	// Now and Nonce default to time.Now and api.NewNonce.
	Now   func() time.Time
	Nonce func() string
}

// ProtocolParams returns the oauth_* parameters for a new request, without
// the signature.
func (c *Client) ProtocolParams() url.Values {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	nonce := api.NewNonce
	if c.Nonce != nil {
		nonce = c.Nonce
	}

	p := url.Values{}
	p.Set("oauth_consumer_key", c.ConsumerKey)
	p.Set("oauth_nonce", nonce())
	p.Set("oauth_signature_method", MethodHMACSHA1)
	p.Set("oauth_timestamp", strconv.FormatInt(now().Unix(), 10))
	p.Set("oauth_version", "1.0")
	if c.Token != "" {
		p.Set("oauth_token", c.Token)
	}
	return p
}

// Authorize signs a request for method and rawURL, including the given form
// parameters, and returns the value for the Authorization header.
func (c *Client) Authorize(method, rawURL string, form url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q must be absolute", rawURL)
	}

	protocol := c.ProtocolParams()

	params := make(url.Values)
	for _, vals := range []url.Values{u.Query(), form, protocol} {
		for k, v := range vals {
			params[k] = append(params[k], v...)
		}
	}

	req := Request{
		Method: method,
		URI:    BaseStringURI(u.Scheme, u.Host, u.EscapedPath()),
		Params: params,
	}
	protocol.Set("oauth_signature", SignHMACSHA1(req.BaseString(), Secrets{Consumer: c.ConsumerSecret, Token: c.TokenSecret}))

	return Header(c.Realm, protocol), nil
}

// Header renders protocol parameters as an OAuth Authorization header value
// with keys in ascending order and ", " between pairs.
func Header(realm string, protocol url.Values) string {
	keys := make([]string, 0, len(protocol))
	for k := range protocol {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+1)
	if realm != "" {
		pairs = append(pairs, `realm="`+realm+`"`)
	}
	for _, k := range keys {
		pairs = append(pairs, Encode(k)+`="`+Encode(protocol.Get(k))+`"`)
	}
	return "OAuth " + strings.Join(pairs, ", ")
}
