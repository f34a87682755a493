package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck4445/ECKOBits/pkg/endpoint"
	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.Repository) {
	t.Helper()
	repo, err := repository.New(t.TempDir(), log.NewNopLogger())
	require.NoError(t, err)
	svc := service.NewLedgerService(repo)
	endpoints := endpoint.New(svc, log.NewNopLogger())
	srv := httptest.NewServer(NewHTTPHandler(endpoints, log.NewNopLogger()))
	t.Cleanup(srv.Close)
	return srv, repo
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/healthcheck")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
}

func TestBalanceEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)
	require.NoError(t, repo.SetBalance("alice", decimal.RequireFromString("42.5")))

	resp, err := http.Get(srv.URL + "/v1/balance/alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool            `json:"success"`
		User    string          `json:"user"`
		Balance decimal.Decimal `json:"balance"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "alice", body.User)
	assert.Equal(t, "42.5", body.Balance.String())
}

func TestCompanyNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/companies/ghostcompany")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotificationsLifecycle(t *testing.T) {
	srv, repo := newTestServer(t)
	require.NoError(t, repo.AddNotification("alice", "first"))
	require.NoError(t, repo.AddNotification("alice", "second"))

	resp, err := http.Get(srv.URL + "/v1/notifications/alice")
	require.NoError(t, err)
	var body struct {
		Success       bool     `json:"success"`
		Notifications []string `json:"notifications"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, []string{"first", "second"}, body.Notifications)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/notifications/alice", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	entries, err := repo.Notifications("alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPreferencesRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := bytes.NewBufferString(`{"theme":"dark","mute":"True"}`)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/preferences/alice", payload)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/preferences/alice")
	require.NoError(t, err)
	var body struct {
		Success     bool                   `json:"success"`
		Preferences repository.Preferences `json:"preferences"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, repository.Preferences{Theme: "dark", Mute: "True"}, body.Preferences)
}

func TestLeaderboardPaging(t *testing.T) {
	srv, repo := newTestServer(t)
	require.NoError(t, repo.SetBalance("alice", decimal.NewFromInt(50)))
	require.NoError(t, repo.SetBalance("bob", decimal.NewFromInt(200)))
	require.NoError(t, repo.SetBalance("carol", decimal.NewFromInt(120)))

	resp, err := http.Get(srv.URL + "/v1/leaderboard?limit=2&offset=1")
	require.NoError(t, err)
	var body struct {
		Success bool `json:"success"`
		Entries []struct {
			Name string `json:"name"`
		} `json:"leaderboard"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	require.Len(t, body.Entries, 2)
	assert.Equal(t, "carol", body.Entries[0].Name)
	assert.Equal(t, "alice", body.Entries[1].Name)
}
