package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"launchpad/internal/engine"
	"launchpad/internal/events"
	"launchpad/internal/storage/memory"
	"launchpad/internal/storage/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *events.Bus) {
	t.Helper()
	bus := events.NewBus(zap.NewNop(), 64)
	t.Cleanup(func() { _ = bus.Shutdown(context.Background()) })

	eng := engine.New(memory.NewStore(), bus, zap.NewNop())
	srv := New(":0", eng, bus, zap.NewNop())

	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)
	return ts, bus
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createToken(t *testing.T, ts *httptest.Server) *models.Token {
	t.Helper()
	resp := postJSON(t, ts, "/api/tokens", createTokenRequest{
		Name:    "Test Token",
		Ticker:  "TEST",
		Creator: "creator-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[*models.Token](t, resp)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetToken(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	assert.Equal(t, "TEST", token.Ticker)
	assert.Equal(t, 5000.0, token.MarketCap)

	resp, err := http.Get(ts.URL + "/api/tokens/" + token.ID)
	require.NoError(t, err)
	fetched := decodeBody[*models.Token](t, resp)
	assert.Equal(t, token.ID, fetched.ID)

	resp, err = http.Get(ts.URL + "/api/tokens")
	require.NoError(t, err)
	listed := decodeBody[[]*models.Token](t, resp)
	assert.Len(t, listed, 1)
}

func TestCreateTokenRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts, "/api/tokens", createTokenRequest{Ticker: "TEST"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitTrade(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	resp := postJSON(t, ts, "/api/tokens/"+token.ID+"/trades", submitTradeRequest{
		Kind:      models.KindBuy,
		SolAmount: 10,
		Trader:    "alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	trade := decodeBody[*models.Trade](t, resp)
	assert.InDelta(t, 100000, trade.TokenAmount, 1e-6)

	resp, err := http.Get(ts.URL + "/api/tokens/" + token.ID + "/trades")
	require.NoError(t, err)
	trades := decodeBody[[]*models.Trade](t, resp)
	assert.Len(t, trades, 1)

	resp, err = http.Get(ts.URL + "/api/tokens/" + token.ID + "/holders")
	require.NoError(t, err)
	holders := decodeBody[[]*models.Holder](t, resp)
	require.Len(t, holders, 1)
	assert.InDelta(t, 100.0, holders[0].OwnershipPct, 1e-9)
}

func TestTradeErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	// invalid amount -> 400
	resp := postJSON(t, ts, "/api/tokens/"+token.ID+"/trades", submitTradeRequest{
		Kind: models.KindBuy, SolAmount: -1, Trader: "alice",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown token -> 404
	resp = postJSON(t, ts, "/api/tokens/no-such/trades", submitTradeRequest{
		Kind: models.KindBuy, SolAmount: 1, Trader: "alice",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// sell without holdings -> 409
	resp = postJSON(t, ts, "/api/tokens/"+token.ID+"/trades", submitTradeRequest{
		Kind: models.KindSell, SolAmount: 1, Trader: "nobody",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// malformed body -> 400
	raw, err := http.Post(ts.URL+"/api/tokens/"+token.ID+"/trades", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestAnonymousTraderAssigned(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	resp := postJSON(t, ts, "/api/tokens/"+token.ID+"/trades", submitTradeRequest{
		Kind: models.KindBuy, SolAmount: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	trade := decodeBody[*models.Trade](t, resp)
	assert.True(t, strings.HasPrefix(trade.Trader, "anon-"))
}

func TestListTradesLimit(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts, "/api/tokens/"+token.ID+"/trades", submitTradeRequest{
			Kind: models.KindBuy, SolAmount: float64(i + 1), Trader: "alice",
		})
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/tokens/" + token.ID + "/trades?limit=2")
	require.NoError(t, err)
	trades := decodeBody[[]*models.Trade](t, resp)
	assert.Len(t, trades, 2)

	resp, err = http.Get(ts.URL + "/api/tokens/" + token.ID + "/trades?limit=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComments(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	resp := postJSON(t, ts, "/api/tokens/"+token.ID+"/comments", postCommentRequest{
		Text: "to the moon", Author: "alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/tokens/" + token.ID + "/comments")
	require.NoError(t, err)
	comments := decodeBody[[]*models.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "to the moon", comments[0].Text)
}

func TestExportTradesCSV(t *testing.T) {
	ts, _ := newTestServer(t)
	token := createToken(t, ts)

	resp := postJSON(t, ts, "/api/tokens/"+token.ID+"/trades", submitTradeRequest{
		Kind: models.KindBuy, SolAmount: 10, Trader: "alice",
	})
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/tokens/" + token.ID + "/trades/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "executed_at,kind,trader")
	assert.Contains(t, buf.String(), "alice")
}

func TestWebsocketFeed(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	createToken(t, ts)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, string(events.TokenCreated), frame.Type)
}
