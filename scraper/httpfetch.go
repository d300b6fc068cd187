package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	tls2 "github.com/refraction-networking/utls"
)

// maxBodyBytes caps how much of a product page is read.
const maxBodyBytes = 10 * 1024 * 1024

// httpFetcher performs HTTP requests with a Chrome TLS fingerprint (utls).
type httpFetcher struct {
	userAgent string
	dialTLS   func(ctx context.Context, network, addr string) (net.Conn, error)
}

// newHTTPFetcher creates a new HTTP fetcher.
func newHTTPFetcher(userAgent string) *httpFetcher {
	return &httpFetcher{userAgent: userAgent, dialTLS: dialTLSChrome}
}

// fetch retrieves the URL via plain HTTP with a Chrome TLS fingerprint.
func (f *httpFetcher) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	transport := &http.Transport{DialTLSContext: f.dialTLS}
	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}
	return body, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls. ALPN is pinned to http/1.1 because the connection is handed to a
// net/http Transport that does not speak h2 over custom dialers.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	hello, err := tls2.UTLSIdToSpec(tls2.HelloChrome_Auto)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("httpfetch: chrome hello: %w", err)
	}
	for _, ext := range hello.Extensions {
		if alpn, ok := ext.(*tls2.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{ServerName: host}, tls2.HelloCustom)
	if err := tlsConn.ApplyPreset(&hello); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("httpfetch: apply hello: %w", err)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
