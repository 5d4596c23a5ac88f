package luxapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minersched/minersched/internal/luxsim"
	"github.com/minersched/minersched/pkg/log"
)

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) all() []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]log.Event(nil), c.events...)
}

// fixedServer answers every request with status and body.
func fixedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, events log.Logger) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Timeout: time.Second, EventLogger: events})
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    Outcome
	}{
		{"ok", 200, "Miner set to sleep.", OutcomeApplied},
		{"ok without message", 200, "", OutcomeApplied},
		{"already", 400, "Miner is already in overclock", OutcomeAlreadyInState},
		{"invalid", 400, "Invalid performance profile.", OutcomeInvalidValue},
		{"empty 400", 400, "", OutcomeInvalidValue},
		{"lowercase marker", 400, "miner is already in sleep", OutcomeInvalidValue},
		{"expired", 401, "Token expired.", OutcomeUnauthorized},
		{"other status", 500, "boom", OutcomeApplied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status, tt.message))
		})
	}
}

func TestOutcomeConfirmed(t *testing.T) {
	assert.True(t, OutcomeApplied.Confirmed())
	assert.True(t, OutcomeAlreadyInState.Confirmed())
	assert.False(t, OutcomeInvalidValue.Confirmed())
	assert.False(t, OutcomeUnauthorized.Confirmed())
	assert.Equal(t, "ALREADY", OutcomeAlreadyInState.String())
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "127.0.0.1:5000", "ftp://host", "http://"} {
		_, err := NewClient(Config{BaseURL: u})
		assert.ErrorIs(t, err, ErrInvalidBaseURL, "url %q", u)
	}
}

func TestLoginFreshSession(t *testing.T) {
	srv := fixedServer(t, 200, `{"message":"Miner logged in.","token":"T1","ttl":"Thu, 29 Feb 2024 20:10:56 GMT"}`)
	c := newTestClient(t, srv.URL, nil)

	res, err := c.Login(context.Background(), "10.1.1.1")
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Equal(t, "T1", res.Token)
	assert.False(t, res.AlreadyLoggedIn)
	require.NotNil(t, res.TTL)
	assert.True(t, res.TTL.Equal(time.Date(2024, 2, 29, 20, 10, 56, 0, time.UTC)))
}

func TestLoginAlreadyLoggedIn(t *testing.T) {
	srv := fixedServer(t, 200, `{"message":"Miner already logged in.","token":"T1"}`)
	c := newTestClient(t, srv.URL, nil)

	res, err := c.Login(context.Background(), "10.1.1.5")
	require.NoError(t, err)

	assert.Equal(t, "T1", res.Token)
	assert.True(t, res.AlreadyLoggedIn)
	assert.Nil(t, res.TTL)
}

func TestLoginUnparseableTTL(t *testing.T) {
	srv := fixedServer(t, 200, `{"message":"Miner logged in.","token":"T1","ttl":"soon"}`)
	c := newTestClient(t, srv.URL, nil)

	res, err := c.Login(context.Background(), "10.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Token)
	assert.Nil(t, res.TTL)
}

func TestLoginRejectedIsNotAnError(t *testing.T) {
	srv := fixedServer(t, 403, `{"message":"Forbidden."}`)
	c := newTestClient(t, srv.URL, nil)

	res, err := c.Login(context.Background(), "10.1.1.1")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, 403, res.StatusCode)
	assert.Equal(t, "Forbidden.", res.Message)
}

func TestLoginMalformed(t *testing.T) {
	tests := map[string]string{
		"not json": `<html>`,
		"no token": `{"message":"Miner logged in."}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := fixedServer(t, 200, body)
			c := newTestClient(t, srv.URL, nil)

			_, err := c.Login(context.Background(), "10.1.1.1")
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.NotErrorIs(t, err, ErrTransport)
		})
	}
}

func TestLoginSendsMinerIP(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":"Miner logged in.","token":"x"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", nil)
	_, err := c.Login(context.Background(), "10.1.1.3")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"miner_ip": "10.1.1.3"}, got)
}

func TestChangeRequestsCarryTokenAndTarget(t *testing.T) {
	bodies := map[string]map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b map[string]string
		_ = json.NewDecoder(r.Body).Decode(&b)
		bodies[r.URL.Path] = b
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	res, err := c.SetProfile(context.Background(), "T1", "underclock")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	res, err = c.SetMode(context.Background(), "T2", "sleep")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	assert.Equal(t, map[string]string{"token": "T1", "profile": "underclock"}, bodies[PathProfileSet])
	assert.Equal(t, map[string]string{"token": "T2", "mode": "sleep"}, bodies[PathCurtail])
}

func TestChangeClassifiesResponses(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   Outcome
	}{
		{400, `{"message":"Miner is already in overclock"}`, OutcomeAlreadyInState},
		{400, `{"message":"Invalid power mode."}`, OutcomeInvalidValue},
		{400, `not json`, OutcomeInvalidValue},
		{401, `{"message":"Token expired."}`, OutcomeUnauthorized},
		{200, ``, OutcomeApplied},
	}
	for _, tt := range tests {
		srv := fixedServer(t, tt.status, tt.body)
		c := newTestClient(t, srv.URL, nil)

		res, err := c.SetMode(context.Background(), "T", "sleep")
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Outcome, "status %d body %q", tt.status, tt.body)
		assert.Equal(t, tt.status, res.StatusCode)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	events := &captureLogger{}
	c := newTestClient(t, url, events)

	_, err := c.Login(context.Background(), "10.1.1.1")
	assert.ErrorIs(t, err, ErrTransport)

	_, err = c.SetProfile(context.Background(), "T", "normal")
	assert.ErrorIs(t, err, ErrTransport)

	var errorsSeen int
	for _, e := range events.all() {
		if e.Category == log.CategoryError {
			errorsSeen++
			assert.Equal(t, log.LayerAPI, e.Error.Layer)
		}
	}
	assert.Equal(t, 2, errorsSeen)
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.SetMode(context.Background(), "T", "sleep")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEventsCarryPassAndDevice(t *testing.T) {
	sim := luxsim.New(luxsim.Config{Miners: []string{"10.1.1.1"}})
	srv := httptest.NewServer(sim)
	defer srv.Close()

	events := &captureLogger{}
	c := newTestClient(t, srv.URL, events)

	ctx := log.ContextWithPassID(context.Background(), "pass-7")
	login, err := c.Login(ctx, "10.1.1.1")
	require.NoError(t, err)

	ctx = ContextWithDevice(ctx, "10.1.1.1")
	res, err := c.SetProfile(ctx, login.Token, "normal")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyInState, res.Outcome)

	all := events.all()
	require.Len(t, all, 4)
	for _, e := range all {
		assert.Equal(t, "pass-7", e.PassID)
		assert.Equal(t, "10.1.1.1", e.DeviceAddr)
		require.NotNil(t, e.Exchange)
	}
	assert.Equal(t, log.DirectionOut, all[2].Direction)
	assert.Equal(t, "normal", all[2].Exchange.Target)
	assert.Equal(t, "ALREADY", all[3].Exchange.Outcome)
	assert.Equal(t, 400, all[3].Exchange.StatusCode)
}
