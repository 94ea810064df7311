package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	apierr "github.com/opst/gemdclient/pkg/api/types/errors"
	xe "github.com/opst/gemdclient/pkg/errors"
)

const (
	// tokens expiring within this margin are refreshed before use.
	expiryMargin = time.Minute

	// lifetime assumed for access tokens without "exp".
	fallbackLifetime = 5 * time.Minute
)

// tokenSource exchanges a refresh token for access tokens and caches them.
type tokenSource struct {
	client   *http.Client
	endpoint string
	refresh  string
	now      func() time.Time

	mu     sync.Mutex
	access string
	expiry time.Time

	group singleflight.Group
}

func newTokenSource(client *http.Client, endpoint, refresh string) *tokenSource {
	return &tokenSource{client: client, endpoint: endpoint, refresh: refresh, now: time.Now}
}

// Token returns a valid access token, refreshing it if needed.
//
// Concurrent refreshes are collapsed into one request.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.access != "" && t.now().Add(expiryMargin).Before(t.expiry) {
		access := t.access
		t.mu.Unlock()
		return access, nil
	}
	t.mu.Unlock()

	v, err, _ := t.group.Do("refresh", func() (any, error) {
		return t.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached access token.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.access = ""
	t.expiry = time.Time{}
}

func (t *tokenSource) fetch(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": t.refresh})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if StatusCodeRangeOf(resp.StatusCode) != Status2xx {
		return "", &xe.HTTPError{
			Method: http.MethodPost, Path: t.endpoint,
			StatusCode: resp.StatusCode, Reason: apierr.Reason(body),
		}
	}

	tok := struct {
		AccessToken string `json:"access_token"`
	}{}
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token response has no access_token", xe.ErrInvalidShape)
	}

	expiry := t.now().Add(fallbackLifetime)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiry = exp.Time
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.access = tok.AccessToken
	t.expiry = expiry
	return tok.AccessToken, nil
}
