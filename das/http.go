package das

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cms-top/crabgen/config"
	"github.com/cms-top/crabgen/version"
	"golang.org/x/time/rate"
)

// HTTPClient queries the DAS web API.
type HTTPClient struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient returns a client for the DAS server configured in "conf".
// A grid proxy or certificate is used for authentication when configured.
func NewHTTPClient(conf config.DAS) (*HTTPClient, error) {
	if conf.URL == "" {
		return nil, fmt.Errorf("das: server URL is not configured")
	}

	tlsConf := &tls.Config{}
	if conf.CertFile != "" {
		key := conf.KeyFile
		if key == "" {
			// a grid proxy holds the certificate and the key in the same file
			key = conf.CertFile
		}
		cert, err := tls.LoadX509KeyPair(conf.CertFile, key)
		if err != nil {
			return nil, fmt.Errorf("das: loading client certificate: %w", err)
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}
	if conf.CAFile != "" {
		pem, err := os.ReadFile(conf.CAFile)
		if err != nil {
			return nil, fmt.Errorf("das: reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("das: no certificates found in %s", conf.CAFile)
		}
		tlsConf.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConf

	limit := rate.Inf
	if conf.RateLimit > 0 {
		limit = rate.Limit(conf.RateLimit)
	}

	return &HTTPClient{
		url: strings.TrimSuffix(conf.URL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(conf.Timeout),
		},
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Query runs a DAS query through the "/das/cache" endpoint.
func (c *HTTPClient) Query(ctx context.Context, query string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("input", query)
	v.Set("idx", "0")
	v.Set("limit", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/das/cache?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	out := &Response{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("das: decoding response: %w", err)
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("das: query %q failed with status %q: %s", query, out.Status, out.Reason)
	}
	return out, nil
}
