package internal

import "net/http"

// UserAgent identifies outbound requests made on behalf of tool handlers
const UserAgent = "switchboard"

// HeaderTransport is a RoundTripper that adds default headers to every
// outbound request before delegating to a base transport.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers http.Header
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, values := range t.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// WithDefaultHeaders wraps a client so every request carries the given
// headers plus the switchboard User-Agent. The client is modified in place
// and returned for convenience.
func WithDefaultHeaders(client *http.Client, headers http.Header) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	merged := http.Header{}
	merged.Set("User-Agent", UserAgent)
	for key, values := range headers {
		for _, value := range values {
			merged.Add(key, value)
		}
	}
	client.Transport = &HeaderTransport{Base: client.Transport, Headers: merged}
	return client
}
