// Package httpclient provides the hardened outbound HTTP client used for
// provider API calls. Provider base URLs are operator-configured, so the
// client refuses redirects to private address space and caps redirect
// chains rather than trusting the remote end.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pixelfan/pixelfan/errors"
)

const (
	maxRedirects = 5
	dialTimeout  = 30 * time.Second
)

// NewEgressClient creates an HTTP client for calling provider APIs.
// Connections to private or loopback addresses are refused at dial time,
// which also covers DNS rebinding after redirect validation.
func NewEgressClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.Newf("stopped after %d redirects", maxRedirects)
			}
			if req.URL.Scheme != "https" && req.URL.Scheme != "http" {
				return errors.Newf("scheme %q not allowed", req.URL.Scheme)
			}
			return nil
		},
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, errors.Wrap(err, "invalid address")
				}

				ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
				if err != nil {
					return nil, errors.Wrapf(err, "failed to resolve host %q", host)
				}
				for _, ip := range ips {
					if isPrivateIP(ip) {
						return nil, errors.Newf("private address blocked: %s", ip)
					}
				}

				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// isPrivateIP reports whether ip belongs to a range that should never be
// a provider endpoint.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
