package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syauqi-N/Bot-Saham/internal/bot"
	"github.com/Syauqi-N/Bot-Saham/internal/cache"
	"github.com/Syauqi-N/Bot-Saham/internal/gateway"
	"github.com/Syauqi-N/Bot-Saham/internal/marketdata"
	"github.com/Syauqi-N/Bot-Saham/internal/model"
	"github.com/Syauqi-N/Bot-Saham/internal/quote"
	"github.com/Syauqi-N/Bot-Saham/internal/ratelimit"
	"github.com/Syauqi-N/Bot-Saham/internal/recorder"
)

type sentMessage struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Session string `json:"session"`
}

// fakeGateway captures everything SendText delivers.
type fakeGateway struct {
	mu   sync.Mutex
	sent []sentMessage
	srv  *httptest.Server
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sendText", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var msg sentMessage
		require.NoError(t, json.Unmarshal(body, &msg))
		g.mu.Lock()
		g.sent = append(g.sent, msg)
		g.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

type env struct {
	bot *httptest.Server
	gw  *fakeGateway
}

func newEnv(t *testing.T, mock *marketdata.MockFetcher, window time.Duration) *env {
	t.Helper()
	gw := newFakeGateway(t)
	store := cache.New(15 * time.Second)
	limiter := ratelimit.New(window)
	svc := quote.NewService(
		func() (marketdata.Fetcher, error) { return mock, nil },
		store, "IDX", marketdata.Interval1D, 2,
	)
	client := gateway.NewClient(gw.srv.URL, "default", "", 5*time.Second)
	h := New(svc, client, limiter, recorder.NewNoopRecorder(), "COMPOSITE", "IDX", false)
	ts := httptest.NewServer(h.Routes())
	t.Cleanup(ts.Close)
	return &env{bot: ts, gw: gw}
}

func postWebhook(t *testing.T, e *env, payload any) string {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(e.bot.URL+"/webhook", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status.Status
}

func scenarioBars() []model.Bar {
	day := func(n int) time.Time { return time.Date(2024, 6, n, 0, 0, 0, 0, time.UTC) }
	return []model.Bar{
		{Time: day(1), Open: 92, High: 96, Low: 90, Close: 95, Volume: 900},
		{Time: day(2), Open: 90, High: 101, Low: 89, Close: 100, Volume: 1000},
	}
}

func TestWebhook_SymbolQuote(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{Bars: scenarioBars()}, 5*time.Second)

	status := postWebhook(t, e, map[string]any{
		"payload": map[string]any{"body": "$BBCA", "chatId": "X", "fromMe": false},
	})
	assert.Equal(t, "ok", status)

	msgs := e.gw.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "X", msgs[0].ChatID)
	assert.Equal(t, "default", msgs[0].Session)

	text := msgs[0].Text
	assert.Contains(t, text, "BBCA (IDX)")
	assert.Contains(t, text, "Close: 100")
	assert.Contains(t, text, "Change: +10.00 (+11.11%)")
	assert.Contains(t, text, "O/H/L: 90 / 101 / 89")
	assert.Contains(t, text, "Volume: 1,000")
	// Both bars are complete, so the pivot block rides along (from the
	// second-to-last daily bar).
	assert.Contains(t, text, "SUPPORT & RESISTANCE")
	assert.True(t, strings.HasSuffix(text, bot.Footer))
	assert.Equal(t, 1, strings.Count(text, bot.Footer))
}

func TestWebhook_PivotFailureDoesNotBlockQuote(t *testing.T) {
	t.Parallel()

	bars := scenarioBars()
	// Wreck the pivot source bar; the quote itself stays intact.
	bars[0].High = math.NaN()
	e := newEnv(t, &marketdata.MockFetcher{Bars: bars}, 5*time.Second)

	status := postWebhook(t, e, map[string]any{"body": "$BBCA", "chatId": "X", "fromMe": false})
	assert.Equal(t, "ok", status)

	msgs := e.gw.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Close: 100")
	assert.NotContains(t, msgs[0].Text, "SUPPORT & RESISTANCE")
	assert.True(t, strings.HasSuffix(msgs[0].Text, bot.Footer))
}

func TestWebhook_RateLimited(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{Bars: scenarioBars()}, 5*time.Second)

	first := postWebhook(t, e, map[string]any{"body": "$BBCA", "chatId": "X", "fromMe": false})
	require.Equal(t, "ok", first)
	second := postWebhook(t, e, map[string]any{"body": "$BBCA", "chatId": "X", "fromMe": false})
	assert.Equal(t, "rate_limited", second)

	msgs := e.gw.messages()
	require.Len(t, msgs, 2)
	m := regexp.MustCompile(`^Mohon tunggu (\d+) detik sebelum request lagi\.`).FindStringSubmatch(msgs[1].Text)
	require.NotNil(t, m, "unexpected rate-limit reply: %q", msgs[1].Text)
	n, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestWebhook_IndexQuote(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{Bars: scenarioBars()}, 5*time.Second)

	status := postWebhook(t, e, map[string]any{"body": "!ihsg", "chatId": "Y", "fromMe": false})
	assert.Equal(t, "ok", status)

	msgs := e.gw.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "IHSG (IDX)")
	// No pivot block for the index.
	assert.NotContains(t, msgs[0].Text, "SUPPORT & RESISTANCE")
}

func TestWebhook_NoData(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{Bars: []model.Bar{}}, 5*time.Second)

	status := postWebhook(t, e, map[string]any{"body": "$ZZZZ", "chatId": "X", "fromMe": false})
	// The endpoint still acknowledges; the failure rides in the reply.
	assert.Equal(t, "error", status)

	msgs := e.gw.messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Text, "Data tidak tersedia untuk simbol tersebut."))
}

func TestWebhook_Help(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{}, 5*time.Second)

	status := postWebhook(t, e, map[string]any{"body": "!help", "chatId": "X", "fromMe": false})
	assert.Equal(t, "ok", status)
	// Help is exempt from the cooldown.
	status = postWebhook(t, e, map[string]any{"body": "!help", "chatId": "X", "fromMe": false})
	assert.Equal(t, "ok", status)

	msgs := e.gw.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Panduan cepat:")
	assert.True(t, strings.HasSuffix(msgs[0].Text, bot.Footer))
}

func TestWebhook_Ignored(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{Bars: scenarioBars()}, 5*time.Second)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"self-originated", map[string]any{"body": "$BBCA", "chatId": "X", "fromMe": true}},
		{"missing chat id", map[string]any{"body": "$BBCA"}},
		{"missing text", map[string]any{"chatId": "X"}},
		{"unrecognized text", map[string]any{"body": "hello", "chatId": "X"}},
	}
	for _, tt := range tests {
		assert.Equal(t, "ignored", postWebhook(t, e, tt.payload), tt.name)
	}
	assert.Empty(t, e.gw.messages())
}

func TestWebhook_FieldAliases(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{Bars: scenarioBars()}, 5*time.Second)

	// Flat payload with alternate field names.
	status := postWebhook(t, e, map[string]any{"text": "$BBCA", "from": "Z", "from_me": false})
	assert.Equal(t, "ok", status)

	msgs := e.gw.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Z", msgs[0].ChatID)
}

func TestWebhook_MalformedBody(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{}, 5*time.Second)

	resp, err := http.Post(e.bot.URL+"/webhook", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, e.gw.messages())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &marketdata.MockFetcher{}, 5*time.Second)

	resp, err := http.Get(e.bot.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestExtractMessage(t *testing.T) {
	t.Parallel()

	got := extractMessage(map[string]any{
		"payload": map[string]any{"message": "hi", "chat_id": "C", "fromMe": true},
	})
	assert.Equal(t, model.InboundMessage{Text: "hi", ChatID: "C", FromMe: true}, got)

	got = extractMessage(map[string]any{"content": "yo", "from": "D"})
	assert.Equal(t, model.InboundMessage{Text: "yo", ChatID: "D"}, got)
}
