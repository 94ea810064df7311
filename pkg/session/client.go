package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	apierr "github.com/opst/gemdclient/pkg/api/types/errors"
	"github.com/opst/gemdclient/pkg/configs/profiles"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/metrics"
	"github.com/opst/gemdclient/pkg/utils/retry"
)

const (
	// ApiPrefix is the path under the api root where the REST api lives.
	ApiPrefix = "api/v1"

	DefaultRetryInterval = 500 * time.Millisecond
	maxRetryInterval     = 30 * time.Second
)

// Client is a Session over HTTP.
type Client struct {
	httpclient *http.Client
	api        string
	tokens     *tokenSource
	static     string

	log      logger.Logger
	metrics  *metrics.Requests
	attempts int
	interval time.Duration
}

var _ Session = &Client{}

type options struct {
	httpclient  *http.Client
	log         logger.Logger
	metrics     *metrics.Requests
	accessToken string
	attempts    *int
	interval    time.Duration
}

type Option func(*options) *options

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) *options {
		o.httpclient = hc
		return o
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) *options {
		o.log = l
		return o
	}
}

func WithMetrics(m *metrics.Requests) Option {
	return func(o *options) *options {
		o.metrics = m
		return o
	}
}

// WithAccessToken uses a fixed access token instead of refreshing with the profile's refresh token.
func WithAccessToken(token string) Option {
	return func(o *options) *options {
		o.accessToken = token
		return o
	}
}

// WithRetry overrides retry settings of the profile.
//
// attempts is the number of retries after a transient failure; zero disables retrying.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) *options {
		o.attempts = &attempts
		o.interval = interval
		return o
	}
}

// New creates a Client for the platform described by prof.
//
// Transient failures (network errors, 429, 502, 503 and 504) are retried
// with exponential backoff, as configured by prof.Retry or WithRetry.
// A request answered with 401 is sent once again after refreshing the access token.
func New(prof *profiles.Profile, opts ...Option) (*Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}

	o := &options{
		log:      logger.Null(),
		interval: prof.Retry.Interval,
	}
	for _, opt := range opts {
		o = opt(o)
	}

	httpclient := o.httpclient
	if httpclient == nil {
		httpclient = new(http.Client)
	}
	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	attempts := prof.Retry.Attempts
	if o.attempts != nil {
		attempts = *o.attempts
	}
	interval := o.interval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	c := &Client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/") + "/" + ApiPrefix,
		static:     o.accessToken,
		log:        o.log,
		metrics:    o.metrics,
		attempts:   attempts,
		interval:   interval,
	}
	if c.static == "" && prof.RefreshToken != "" {
		c.tokens = newTokenSource(httpclient, c.apipath("tokens", "refresh"), prof.RefreshToken)
	}
	return c, nil
}

func (c *Client) apipath(path ...string) string {
	segs := []string{c.api}
	for _, p := range path {
		segs = append(segs, strings.Trim(p, "/"))
	}
	return strings.Join(segs, "/")
}

func (c *Client) Get(ctx context.Context, path string, params url.Values) (stdjson.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil, params)
}

func (c *Client) Post(ctx context.Context, path string, body any, params url.Values) (stdjson.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body, params)
}

func (c *Client) Put(ctx context.Context, path string, body any, params url.Values) (stdjson.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body, params)
}

func (c *Client) Delete(ctx context.Context, path string, params url.Values) (stdjson.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, params)
}

func (c *Client) do(ctx context.Context, method string, path string, body any, params url.Values) (stdjson.RawMessage, error) {
	var payload []byte
	if body != nil {
		p, err := json.Marshal(body)
		if err != nil {
			return nil, xe.WrapWithNote("encoding request body", err)
		}
		payload = p
	}

	send := func() (stdjson.RawMessage, error) {
		backoff := retry.Limit(c.attempts, retry.ExponentialBackoff(c.interval, 2, maxRetryInterval))
		return retry.Blocking(ctx, backoff, func() (stdjson.RawMessage, error) {
			return c.once(ctx, method, path, payload, params)
		})
	}

	resp, err := send()
	if errors.Is(err, xe.ErrUnauthorized) && c.tokens != nil {
		c.log.Infof("%s %s: unauthorized. refreshing access token", method, path)
		c.tokens.Invalidate()
		resp, err = send()
	}
	return resp, err
}

func (c *Client) once(ctx context.Context, method string, path string, payload []byte, params url.Values) (stdjson.RawMessage, error) {
	u := c.apipath(path)
	if len(params) != 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch {
	case c.static != "":
		req.Header.Set("Authorization", "Bearer "+c.static)
	case c.tokens != nil:
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			if xe.IsRetryable(err) {
				return nil, retry.Retryable(err)
			}
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	begin := time.Now()
	resp, err := c.httpclient.Do(req)
	if err != nil {
		c.metrics.Observe(method, 0, time.Since(begin))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warnf("%s %s: %s", method, path, err)
		return nil, retry.Retryable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.Observe(method, resp.StatusCode, time.Since(begin))
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("reading response of %s %s: %w", method, path, err))
	}
	c.log.Debugf("%s %s -> %d (%s)", method, u, resp.StatusCode, time.Since(begin))

	if StatusCodeRangeOf(resp.StatusCode) == Status2xx {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		return stdjson.RawMessage(body), nil
	}

	herr := &xe.HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Reason:     apierr.Reason(body),
	}
	if transient[resp.StatusCode] {
		c.log.Warnf("%s %s: %s (%s)", method, path, StatusCodeRangeOf(resp.StatusCode), herr.Reason)
		return nil, retry.Retryable(herr)
	}
	return nil, herr
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	tran := http.DefaultTransport.(*http.Transport)
	if hc.Transport != nil {
		t, ok := hc.Transport.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("failed to add ca cert: unsupported transport %T", hc.Transport)
		}
		tran = t
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}
	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}
		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	ret := *hc
	ret.Transport = tran
	return &ret, nil
}
