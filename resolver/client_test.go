package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"brawler/config"
	"brawler/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, serverURL string) *Client {
	retryInterval = time.Millisecond
	return NewClient(&config.Config{
		ResolverURL:     serverURL,
		ResolverAPIKey:  "test-key",
		ResolverTimeout: 5 * time.Second,
		ResolverRetries: 2,
	})
}

func testMatch() *models.Match {
	two := decimal.NewFromInt(2)
	a := &models.Fighter{ID: "a", Name: "Alpha", HP: 40, Agility: 10, Power: 10, Popularity: 3, Titles: []string{"Heavyweight"}}
	b := &models.Fighter{ID: "b", Name: "Beta", HP: 35, Agility: 12, Power: 8, Popularity: 1}
	return &models.Match{
		ID:      "match-1",
		Type:    models.MatchType1v1,
		Sides:   [2][]*models.Fighter{{a}, {b}},
		SideIDs: [2]string{"a", "b"},
		Odds:    [2]decimal.Decimal{two, two},
	}
}

func validOutcomeBody() []byte {
	body, _ := json.Marshal(models.FightOutcome{
		WinnerID: "a",
		Summary:  "Alpha wins",
		BattleLog: []models.TurnEntry{
			{Actor: "a", Action: "strike", Target: "b", Damage: 10},
		},
	})
	return body
}

func TestClient_RunMatch(t *testing.T) {
	var captured matchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fight", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(validOutcomeBody())
	}))
	defer server.Close()

	outcome, err := testClient(t, server.URL).RunMatch(context.Background(), testMatch(), 42, 77)
	require.NoError(t, err)

	assert.Equal(t, "a", outcome.WinnerID)
	assert.Len(t, outcome.BattleLog, 1)
	assert.Equal(t, 42, captured.WinnerBias)
	assert.Equal(t, 77, captured.Volatility)
	// The full profile goes over the wire, private stats included
	require.Len(t, captured.Sides[0], 1)
	assert.Equal(t, 40, captured.Sides[0][0].HP)
	assert.Equal(t, []string{"Heavyweight"}, captured.Sides[0][0].Titles)
}

func TestClient_RunMatch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(validOutcomeBody())
	}))
	defer server.Close()

	outcome, err := testClient(t, server.URL).RunMatch(context.Background(), testMatch(), 50, 50)
	require.NoError(t, err)
	assert.Equal(t, "a", outcome.WinnerID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RunMatch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).RunMatch(context.Background(), testMatch(), 50, 50)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt + 2 retries
}

func TestClient_RunMatch_MalformedPayloadIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("this is not json"))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).RunMatch(context.Background(), testMatch(), 50, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed resolver response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RunMatch_RejectsUnknownWinner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(models.FightOutcome{
			WinnerID:  "stranger",
			BattleLog: []models.TurnEntry{{Actor: "stranger"}},
		})
		w.Write(body)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).RunMatch(context.Background(), testMatch(), 50, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown winner")
}

func TestClient_RunMatch_RejectsEmptyBattleLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(models.FightOutcome{WinnerID: "a"})
		w.Write(body)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).RunMatch(context.Background(), testMatch(), 50, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty battle log")
}

func TestClient_Moderate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderate", r.URL.Path)

		var req moderationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Submissions, 2)
		assert.Equal(t, "p1.png", req.Submissions[0].Image)

		// p2 gets no verdict and stays pending
		body, _ := json.Marshal(map[string]models.ModerationDecision{
			"p1": {Approved: false, Reason: "content policy"},
		})
		w.Write(body)
	}))
	defer server.Close()

	batch := []*models.Fighter{
		{ID: "p1", ImageFile: "p1.png"},
		{ID: "p2", ImageFile: "p2.png"},
	}
	decisions, err := testClient(t, server.URL).Moderate(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "content policy", decisions["p1"].Reason)
}
