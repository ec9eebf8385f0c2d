package tvfeed

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Syauqi-N/Bot-Saham/internal/marketdata"
	"github.com/Syauqi-N/Bot-Saham/internal/model"
)

const (
	signinURL   = "https://www.tradingview.com/accounts/signin/"
	wsURL       = "wss://data.tradingview.com/socket.io/websocket"
	wsOrigin    = "https://data.tradingview.com"
	anonToken   = "unauthorized_user_token"
	sessIDChars = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Client fetches historical bars over the TradingView datafeed websocket.
// Each FetchBars call opens a fresh short-lived connection.
type Client struct {
	token   string
	dialer  *websocket.Dialer
	timeout time.Duration
}

// New builds a datafeed client. With empty credentials the anonymous token
// is used; with credentials a sign-in is performed once and its auth token
// reused for every connection.
func New(username, password string, timeout time.Duration) (*Client, error) {
	c := &Client{
		token:   anonToken,
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
		timeout: timeout,
	}
	if username != "" && password != "" {
		token, err := signin(username, password, timeout)
		if err != nil {
			return nil, fmt.Errorf("tradingview signin: %w", err)
		}
		c.token = token
	}
	return c, nil
}

func (c *Client) Name() string { return "tradingview" }

func signin(username, password string, timeout time.Duration) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("remember", "on")

	req, err := http.NewRequest("POST", signinURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://www.tradingview.com")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		User struct {
			AuthToken string `json:"auth_token"`
		} `json:"user"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode signin response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("signin rejected: %s", body.Error)
	}
	if body.User.AuthToken == "" {
		return "", fmt.Errorf("signin response carried no auth token")
	}
	return body.User.AuthToken, nil
}

// FetchBars requests the most recent nBars candles for symbol on exchange.
func (c *Client) FetchBars(symbol, exchange string, interval marketdata.Interval, nBars int) ([]model.Bar, error) {
	conn, _, err := c.dialer.Dial(wsURL, http.Header{"Origin": []string{wsOrigin}})
	if err != nil {
		return nil, fmt.Errorf("dial datafeed: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	cs := "cs_" + randomID(12)
	ticker := fmt.Sprintf("%s:%s", exchange, symbol)
	symbolSpec := fmt.Sprintf(`={"symbol":%q,"adjustment":"splits"}`, ticker)

	setup := []struct {
		method string
		params []any
	}{
		{"set_auth_token", []any{c.token}},
		{"chart_create_session", []any{cs, ""}},
		{"resolve_symbol", []any{cs, "sds_sym_1", symbolSpec}},
		{"create_series", []any{cs, "sds_1", "s1", "sds_sym_1", string(interval), nBars}},
	}
	for _, m := range setup {
		if err := sendMessage(conn, m.method, m.params); err != nil {
			return nil, fmt.Errorf("send %s: %w", m.method, err)
		}
	}

	var bars []model.Bar
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read datafeed: %w", err)
		}
		for _, frame := range splitFrames(string(raw)) {
			if strings.HasPrefix(frame, "~h~") {
				// Heartbeat must be echoed or the server drops us.
				if err := writeFrame(conn, frame); err != nil {
					return nil, fmt.Errorf("echo heartbeat: %w", err)
				}
				continue
			}
			done, err := c.consumeFrame(frame, &bars)
			if err != nil {
				return nil, err
			}
			if done {
				sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
				if len(bars) > nBars {
					bars = bars[len(bars)-nBars:]
				}
				return bars, nil
			}
		}
	}
}

// consumeFrame handles one datafeed message, accumulating bars. It reports
// done once the series is complete.
func (c *Client) consumeFrame(frame string, bars *[]model.Bar) (bool, error) {
	var msg struct {
		M string            `json:"m"`
		P []json.RawMessage `json:"p"`
	}
	if err := json.Unmarshal([]byte(frame), &msg); err != nil {
		// Frames like session-ready blobs are not method messages.
		return false, nil
	}
	switch msg.M {
	case "timescale_update", "du":
		if len(msg.P) > 1 {
			appendSeriesBars(msg.P[1], bars)
		}
		return false, nil
	case "series_completed":
		return true, nil
	case "symbol_error":
		return true, nil // resolves to an empty series, caller maps to NoData
	case "critical_error", "protocol_error":
		return false, fmt.Errorf("datafeed error: %s", frame)
	}
	return false, nil
}

func appendSeriesBars(payload json.RawMessage, bars *[]model.Bar) {
	var series map[string]struct {
		S []struct {
			V []float64 `json:"v"`
		} `json:"s"`
	}
	if err := json.Unmarshal(payload, &series); err != nil {
		return
	}
	sds, ok := series["sds_1"]
	if !ok {
		return
	}
	for _, item := range sds.S {
		if len(item.V) < 5 {
			continue
		}
		bar := model.Bar{
			Time:   time.Unix(int64(item.V[0]), 0),
			Open:   item.V[1],
			High:   item.V[2],
			Low:    item.V[3],
			Close:  item.V[4],
			Volume: math.NaN(),
		}
		if len(item.V) > 5 {
			bar.Volume = item.V[5]
		}
		*bars = append(*bars, bar)
	}
}

func sendMessage(conn *websocket.Conn, method string, params []any) error {
	body, err := json.Marshal(map[string]any{"m": method, "p": params})
	if err != nil {
		return err
	}
	return writeFrame(conn, string(body))
}

func writeFrame(conn *websocket.Conn, payload string) error {
	framed := fmt.Sprintf("~m~%d~m~%s", len(payload), payload)
	return conn.WriteMessage(websocket.TextMessage, []byte(framed))
}

// splitFrames unpacks the ~m~<len>~m~<payload> framing; one websocket
// message may carry several frames back to back.
func splitFrames(raw string) []string {
	var frames []string
	for len(raw) > 0 {
		if !strings.HasPrefix(raw, "~m~") {
			break
		}
		rest := raw[3:]
		sep := strings.Index(rest, "~m~")
		if sep < 0 {
			break
		}
		size, err := strconv.Atoi(rest[:sep])
		if err != nil || size < 0 {
			break
		}
		body := rest[sep+3:]
		if len(body) < size {
			frames = append(frames, body)
			break
		}
		frames = append(frames, body[:size])
		raw = body[size:]
	}
	return frames
}

func randomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = sessIDChars[rand.Intn(len(sessIDChars))]
	}
	return string(b)
}
