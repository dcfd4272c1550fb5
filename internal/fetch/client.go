package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"fpl-league-stats/internal/config"
)

var (
	// ErrUnauthorized means the credentials were rejected or the session expired.
	ErrUnauthorized = errors.New("authentication failed")
	// ErrNotFound means the league, entry or player does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient wraps failures that were retried until the attempt budget ran out.
	ErrTransient = errors.New("transient upstream failure")
)

const loginRedirect = "https://fantasy.premierleague.com/a/login"

type Client struct {
	HTTP        *http.Client
	BaseURL     string
	LoginURL    string
	UserAgent   string
	MaxAttempts uint
	RetryDelay  time.Duration

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

// NewClient builds a client with its own cookie jar. Every request, retries
// included, waits on a limiter spaced cfg.RequestInterval apart.
func NewClient(cfg config.Config, log logrus.FieldLogger) *Client {
	// cookiejar.New never returns an error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	entry := log.WithField("component", "fetch")

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	c := &Client{
		HTTP:        &http.Client{Timeout: cfg.HTTPTimeout, Jar: jar},
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		LoginURL:    cfg.LoginURL,
		UserAgent:   cfg.UserAgent,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		limiter:     rate.NewLimiter(limit, 1),
		log:         entry,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fpl-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// only upstream trouble counts against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransient)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			entry.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return c
}

// FetchRaw GETs urlPath (like "/bootstrap-static/") relative to BaseURL and
// returns the body. Transient failures are retried with a fixed delay up to
// MaxAttempts; authentication and not-found failures return immediately.
func (c *Client) FetchRaw(ctx context.Context, urlPath string) ([]byte, error) {
	r, err := c.do(ctx, "GET "+urlPath, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+urlPath, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return r.body, nil
}

// reply is what one successful request left behind.
type reply struct {
	body  []byte
	final *url.URL
}

// do sends the request built by build, pacing every attempt on the limiter
// and running it through the breaker. build is called once per attempt so
// request bodies can be replayed.
func (c *Client) do(ctx context.Context, what string, build func() (*http.Request, error)) (reply, error) {
	attempt := 0
	op := func() (reply, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return reply{}, backoff.Permanent(err)
		}
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.send(ctx, what, build)
		})
		switch {
		case err == nil:
			return out.(reply), nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return reply{}, backoff.Permanent(fmt.Errorf("%w: %s: %v", ErrTransient, what, err))
		case errors.Is(err, ErrTransient):
			c.log.WithError(err).WithField("attempt", attempt).Warn("request failed, retrying")
			return reply{}, err
		default:
			return reply{}, backoff.Permanent(err)
		}
	}

	attempts := c.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.RetryDelay)),
		backoff.WithMaxTries(attempts),
	)
}

func (c *Client) send(ctx context.Context, what string, build func() (*http.Request, error)) (reply, error) {
	req, err := build()
	if err != nil {
		return reply{}, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return reply{}, ctx.Err()
		}
		return reply{}, fmt.Errorf("%w: %s: %v", ErrTransient, what, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := classify(resp, what, body); err != nil {
		return reply{}, err
	}
	r := reply{body: body}
	if resp.Request != nil {
		r.final = resp.Request.URL
	}
	return r, nil
}

// classify maps a response status onto the error taxonomy.
func classify(resp *http.Response, what string, body []byte) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s: %d", ErrUnauthorized, what, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case code == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return fmt.Errorf("%w: %s: %d: %w", ErrTransient, what, code, backoff.RetryAfter(secs))
		}
		return fmt.Errorf("%w: %s: %d", ErrTransient, what, code)
	case code >= 500:
		return fmt.Errorf("%w: %s: %d", ErrTransient, what, code)
	default:
		return fmt.Errorf("%s failed: %d body=%s", what, code, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func (c *Client) getJSON(ctx context.Context, urlPath string, v any) error {
	body, err := c.FetchRaw(ctx, urlPath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", urlPath, err)
	}
	return nil
}

// Login signs in with the account form and confirms the session via /me/.
func (c *Client) Login(ctx context.Context, email string, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrUnauthorized)
	}
	form := url.Values{
		"login":        {email},
		"password":     {password},
		"app":          {"plfpl-web"},
		"redirect_uri": {loginRedirect},
	}.Encode()
	r, err := c.do(ctx, "POST login", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.LoginURL, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	// a rejected login redirects back with state=fail
	if r.final != nil && r.final.Query().Get("state") == "fail" {
		return fmt.Errorf("%w: login rejected for %s", ErrUnauthorized, email)
	}

	var me struct {
		Player *struct {
			Entry int `json:"entry"`
		} `json:"player"`
	}
	if err := c.getJSON(ctx, "/me/", &me); err != nil {
		return err
	}
	if me.Player == nil {
		return fmt.Errorf("%w: no session after login for %s", ErrUnauthorized, email)
	}
	c.log.WithField("entry", me.Player.Entry).Info("logged in")
	return nil
}
