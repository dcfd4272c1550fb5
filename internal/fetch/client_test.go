package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-league-stats/internal/config"
	"fpl-league-stats/internal/logging"
	"fpl-league-stats/internal/model"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := config.Config{
		BaseURL:          srv.URL + "/api",
		LoginURL:         srv.URL + "/accounts/login/",
		UserAgent:        "test-agent",
		HTTPTimeout:      5 * time.Second,
		MaxAttempts:      3,
		RetryDelay:       time.Millisecond,
		BreakerThreshold: 10,
	}
	return NewClient(cfg, logging.Discard())
}

// ---- FetchRaw ----

func TestFetchRaw_SetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	body, err := testClient(t, srv).FetchRaw(context.Background(), "/x/")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFetchRaw_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).FetchRaw(context.Background(), "/flaky/")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRaw_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).FetchRaw(context.Background(), "/busy/")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRaw_FatalStatusesNotRetried(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := testClient(t, srv).FetchRaw(context.Background(), "/nope/")
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFetchRaw_BreakerOpensOnRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.Config{BaseURL: srv.URL, HTTPTimeout: 5 * time.Second, MaxAttempts: 3, RetryDelay: time.Millisecond, BreakerThreshold: 2}
	c := NewClient(cfg, logging.Discard())

	_, err := c.FetchRaw(context.Background(), "/down/")
	require.ErrorIs(t, err, ErrTransient)
	// the breaker trips after two failures so the third attempt never leaves the client
	assert.Equal(t, int32(2), calls.Load())

	_, err = c.FetchRaw(context.Background(), "/down/")
	require.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRaw_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(t, srv).FetchRaw(ctx, "/x/")
	assert.True(t, errors.Is(err, context.Canceled))
}

// ---- endpoints ----

func TestClassicLeague_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/leagues-classic/77/standings/", r.URL.Path)
		switch r.URL.Query().Get("page_standings") {
		case "1":
			fmt.Fprint(w, `{"league":{"id":77,"name":"Pub","created":"2023-07-10T08:00:00Z"},
				"standings":{"has_next":true,"page":1,"results":[
					{"entry":5,"entry_name":"Five","player_name":"A","rank":1,"total":100},
					{"entry":3,"entry_name":"Three","player_name":"B","rank":2,"total":90}]}}`)
		case "2":
			fmt.Fprint(w, `{"league":{"id":77,"name":"Pub","created":"2023-07-10T08:00:00Z"},
				"standings":{"has_next":false,"page":2,"results":[
					{"entry":9,"entry_name":"Nine","player_name":"C","rank":3,"total":80}]}}`)
		default:
			t.Errorf("unexpected page %q", r.URL.RawQuery)
		}
	}))
	defer srv.Close()

	league, err := testClient(t, srv).ClassicLeague(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Pub", league.Name)
	assert.Equal(t, []int{5, 3, 9}, league.Members)
	assert.Len(t, league.Standings, 3)
}

func TestClassicLeague_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := testClient(t, srv).ClassicLeague(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEndpoints_RejectMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/history/"):
			fmt.Fprint(w, `{"current":[{"event":0,"points":3}],"chips":[]}`)
		case strings.HasSuffix(r.URL.Path, "/picks/"):
			fmt.Fprint(w, `{"picks":[{"element":0,"position":1,"multiplier":1}]}`)
		case strings.HasPrefix(r.URL.Path, "/api/element-summary/"):
			fmt.Fprint(w, `{"history":[{"round":1,"fixture":0}]}`)
		case r.URL.Path == "/api/bootstrap-static/":
			fmt.Fprint(w, `{"events":[{"id":1}],"elements":[{"id":4,"element_type":8}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := testClient(t, srv)
	ctx := context.Background()

	_, err := c.EntryHistory(ctx, 1)
	assert.ErrorIs(t, err, model.ErrMalformed)
	_, err = c.EntryPicks(ctx, 1, 1)
	assert.ErrorIs(t, err, model.ErrMalformed)
	_, err = c.ElementSummary(ctx, 1)
	assert.ErrorIs(t, err, model.ErrMalformed)
	_, err = c.Bootstrap(ctx)
	assert.ErrorIs(t, err, model.ErrMalformed)
}

func TestBootstrap_LatestFinishedAndCurrent(t *testing.T) {
	b := &Bootstrap{Events: []model.Gameweek{
		{ID: 1, Finished: true},
		{ID: 2, Finished: true},
		{ID: 3, IsCurrent: true},
		{ID: 4},
	}}
	assert.Equal(t, 2, b.LatestFinished())
	assert.Equal(t, 3, b.Current())
}

// ---- Login ----

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "plfpl-web", r.PostForm.Get("app"))
		if r.PostForm.Get("password") != "secret" {
			http.Redirect(w, r, "/landing?state=fail", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "pl_profile", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/landing?state=success", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/api/me/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("pl_profile"); err != nil {
			fmt.Fprint(w, `{"player":null}`)
			return
		}
		fmt.Fprint(w, `{"player":{"entry":123}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("success", func(t *testing.T) {
		require.NoError(t, testClient(t, srv).Login(context.Background(), "me@example.com", "secret"))
	})
	t.Run("wrong password", func(t *testing.T) {
		err := testClient(t, srv).Login(context.Background(), "me@example.com", "wrong")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
	t.Run("missing credentials", func(t *testing.T) {
		err := testClient(t, srv).Login(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestLogin_RetriesTransient(t *testing.T) {
	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		if posts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "pl_profile", Value: "ok", Path: "/"})
	})
	mux.HandleFunc("/api/me/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"player":{"entry":123}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	require.NoError(t, testClient(t, srv).Login(context.Background(), "me@example.com", "secret"))
	assert.Equal(t, int32(2), posts.Load())
}

func TestLogin_GivesUpAfterMaxAttempts(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := testClient(t, srv).Login(context.Background(), "me@example.com", "secret")
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(3), posts.Load())
}
