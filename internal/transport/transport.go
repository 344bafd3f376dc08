// Package transport provides the HTTP transport used for calls to the
// commerce platform.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Storefront CDNs fingerprint TLS ClientHellos (JA3) and throttle clients
// that do not look like browsers; Go's stock TLS stack is one of those.
// Since this layer impersonates a storefront session for a real shopper,
// we present Chrome's fingerprint via uTLS and let ALPN pick HTTP/2 or
// HTTP/1.1 naturally, with Go's http2.Transport handling h2 framing.

// NewBrowserTransport creates an http.RoundTripper that presents Chrome's
// TLS fingerprint to the platform. Supports both HTTP/2 and HTTP/1.1
// depending on ALPN negotiation.
func NewBrowserTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2 := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
	}

	h1 := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &browserTransport{h2: h2, h1: h1}
}

// browserTransport tries HTTP/2 first and falls back to HTTP/1.1 for
// servers that never negotiated h2.
type browserTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	// The h2 attempt may have consumed the body. Retry on h1 only when the
	// body can be replayed from scratch, otherwise the server would see an
	// empty payload.
	if !rewindBody(req) {
		return nil, err
	}
	return t.h1.RoundTrip(req)
}

// rewindBody restores req.Body for a retry. Reports false when the
// request carries a body that cannot be reproduced.
func rewindBody(req *http.Request) bool {
	if req.Body == nil {
		return true
	}
	if req.GetBody == nil {
		return false
	}
	body, err := req.GetBody()
	if err != nil {
		return false
	}
	req.Body = body
	return true
}

// dialBrowserTLS establishes a TLS connection with Chrome's fingerprint.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
