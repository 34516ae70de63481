package signature

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Request is the normalized representation of an HTTP request that a
// signature covers: the method, the base string URI and every request
// parameter except oauth_signature and realm.
type Request struct {
	Method string
	URI    string
	Params url.Values
}

// NewRequest builds a Request from an inbound HTTP request. protocol holds
// the oauth_* parameters taken from the Authorization header and form holds
// the parsed url-encoded body parameters (nil when the body is not form
// encoded). The query string is always included.
func NewRequest(r *http.Request, protocol, form url.Values) Request {
	params := make(url.Values)
	for _, vals := range []url.Values{r.URL.Query(), form, protocol} {
		for k, v := range vals {
			if k == "oauth_signature" || k == "realm" {
				continue
			}
			params[k] = append(params[k], v...)
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}

	return Request{
		Method: r.Method,
		URI:    BaseStringURI(scheme, host, r.URL.EscapedPath()),
		Params: params,
	}
}

// BaseStringURI returns the RFC 5849 section 3.4.1.2 base string URI:
// lowercase scheme and host, the default port removed, no query or fragment.
func BaseStringURI(scheme, host, path string) string {
	scheme = strings.ToLower(scheme)
	host = strings.ToLower(host)

	if h, port, err := net.SplitHostPort(host); err == nil {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			host = h
		}
	}
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// NormalizedParams returns the parameters sorted by encoded name, then by
// encoded value, joined as name=value pairs with '&'.
func (r Request) NormalizedParams() string {
	type kv struct{ k, v string }
	kvs := make([]kv, 0, len(r.Params))
	for k, vals := range r.Params {
		if k == "oauth_signature" || k == "realm" {
			continue
		}
		ek := Encode(k)
		for _, v := range vals {
			kvs = append(kvs, kv{ek, Encode(v)})
		}
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].k == kvs[j].k {
			return kvs[i].v < kvs[j].v
		}
		return kvs[i].k < kvs[j].k
	})

	pairs := make([]string, len(kvs))
	for i, p := range kvs {
		pairs[i] = p.k + "=" + p.v
	}
	return strings.Join(pairs, "&")
}

// BaseString returns the signature base string for r.
func (r Request) BaseString() []byte {
	return []byte(Encode(strings.ToUpper(r.Method)) + "&" + Encode(r.URI) + "&" + Encode(r.NormalizedParams()))
}
