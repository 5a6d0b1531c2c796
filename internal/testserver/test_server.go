// Package testserver runs the full HTTP stack over an in-memory SQLite
// database for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/chainledger/internal/app"
	"github.com/rpggio/chainledger/internal/calendar"
	"github.com/rpggio/chainledger/internal/config"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/transport"
	"github.com/stretchr/testify/require"
)

// DefaultNow is the clock the server runs at unless overridden.
var DefaultNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

type TestServer struct {
	Server   *httptest.Server
	App      *app.App
	Token    string
	TenantID string

	nextID atomic.Int64
}

// New starts a server with auth enabled and token registered for tenantID.
func New(t *testing.T, token, tenantID string) *TestServer {
	return NewAt(t, token, tenantID, DefaultNow)
}

// NewAt is New with the ledger clock fixed at now.
func NewAt(t *testing.T, token, tenantID string, now time.Time) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Auth.Enabled = true
	cfg.Server.RateLimitPerMinute = 0

	a, err := app.New(context.Background(), cfg, nil, period.WithClock(calendar.FixedClock{At: now}))
	require.NoError(t, err)
	require.NoError(t, a.Migrate(context.Background()))

	server := httptest.NewServer(a.HTTPHandler(nil))

	ts := &TestServer{
		Server:   server,
		App:      a,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.App.Resolver.Register(context.Background(), token, tenantID, "test")
}

// Call posts a JSON-RPC request with the server's token and decodes the result into out.
// It returns the JSON-RPC error, if any.
func (ts *TestServer) Call(t *testing.T, method string, params any, out any) *transport.Error {
	return ts.CallAs(t, ts.Token, method, params, out)
}

// CallAs is Call with an explicit bearer token.
func (ts *TestServer) CallAs(t *testing.T, token, method string, params any, out any) *transport.Error {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      ts.nextID.Add(1),
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Result json.RawMessage  `json:"result"`
		Error  *transport.Error `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if envelope.Error != nil {
		return envelope.Error
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Result, out))
	}
	return nil
}
