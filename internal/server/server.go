package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Syauqi-N/Bot-Saham/internal/bot"
	"github.com/Syauqi-N/Bot-Saham/internal/gateway"
	"github.com/Syauqi-N/Bot-Saham/internal/model"
	"github.com/Syauqi-N/Bot-Saham/internal/quote"
	"github.com/Syauqi-N/Bot-Saham/internal/ratelimit"
	"github.com/Syauqi-N/Bot-Saham/internal/recorder"
)

// Handler dispatches inbound webhook events: parse, rate-limit, resolve,
// format, reply. Whatever happens, the HTTP response to the gateway is a
// 200 with a status word; real outcomes travel in the outbound chat
// message and the logs.
type Handler struct {
	quotes      *quote.Service
	gateway     *gateway.Client
	limiter     *ratelimit.Limiter
	rec         recorder.Recorder
	indexSymbol string
	exchange    string
	debug       bool
}

// New wires a Handler.
func New(quotes *quote.Service, gw *gateway.Client, limiter *ratelimit.Limiter, rec recorder.Recorder, indexSymbol, exchange string, debug bool) *Handler {
	return &Handler{
		quotes:      quotes,
		gateway:     gw,
		limiter:     limiter,
		rec:         rec,
		indexSymbol: indexSymbol,
		exchange:    exchange,
		debug:       debug,
	}
}

// Routes returns the HTTP mux for the bot.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", h.handleWebhook)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Write([]byte("ok"))
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeStatus(w, "ignored")
		return
	}

	msg := extractMessage(raw)
	if msg.Text == "" || msg.ChatID == "" || msg.FromMe {
		if h.debug {
			log.Printf("[INFO] ignored event: text=%q chat=%q fromMe=%v", msg.Text, msg.ChatID, msg.FromMe)
		}
		writeStatus(w, "ignored")
		return
	}

	cmd, ok := bot.Parse(msg.Text)
	if !ok {
		writeStatus(w, "ignored")
		return
	}

	start := time.Now()

	// Help is informational and exempt from the cooldown.
	if cmd.Kind != model.CmdHelp {
		if allowed, wait := h.limiter.Acquire(msg.ChatID); !allowed {
			secs := int(wait / time.Second)
			h.reply(msg.ChatID, fmt.Sprintf("Mohon tunggu %d detik sebelum request lagi.", secs))
			h.record(msg.ChatID, cmd, "rate_limited", start)
			writeStatus(w, "rate_limited")
			return
		}
	}

	switch cmd.Kind {
	case model.CmdHelp:
		h.reply(msg.ChatID, bot.HelpMessage())
		h.record(msg.ChatID, cmd, "ok", start)
		writeStatus(w, "ok")

	case model.CmdIndexQuote:
		qb, err := h.quotes.Quote(h.indexSymbol)
		if err != nil {
			h.reply(msg.ChatID, quote.QuoteErrorMessage(err))
			h.record(msg.ChatID, cmd, "error", start)
			writeStatus(w, "error")
			return
		}
		display := fmt.Sprintf("IHSG (%s)", h.exchange)
		h.reply(msg.ChatID, bot.QuoteMessage(h.indexSymbol, h.exchange, qb, display, nil))
		h.record(msg.ChatID, cmd, "ok", start)
		writeStatus(w, "ok")

	case model.CmdSymbolQuote:
		qb, err := h.quotes.Quote(cmd.Symbol)
		if err != nil {
			h.reply(msg.ChatID, quote.QuoteErrorMessage(err))
			h.record(msg.ChatID, cmd, "error", start)
			writeStatus(w, "error")
			return
		}
		// A pivot failure must not block the quote reply.
		var piv *model.PivotLevels
		if p, err := h.quotes.PivotLevels(cmd.Symbol); err != nil {
			log.Printf("[WARN] pivot levels for %s: %v", cmd.Symbol, err)
		} else {
			piv = &p
		}
		h.reply(msg.ChatID, bot.QuoteMessage(cmd.Symbol, h.exchange, qb, "", piv))
		h.record(msg.ChatID, cmd, "ok", start)
		writeStatus(w, "ok")
	}
}

// reply sends at most once; transport failures are logged and swallowed.
func (h *Handler) reply(chatID, text string) {
	if err := h.gateway.SendText(chatID, text); err != nil {
		log.Printf("[ERROR] send reply to %s: %v", chatID, err)
	}
}

func (h *Handler) record(chatID string, cmd model.Command, status string, start time.Time) {
	name := "help"
	switch cmd.Kind {
	case model.CmdIndexQuote:
		name = "ihsg"
	case model.CmdSymbolQuote:
		name = "quote"
	}
	evt := &recorder.CommandEvent{
		ChatID:    chatID,
		Command:   name,
		Symbol:    cmd.Symbol,
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err := h.rec.RecordCommand(evt); err != nil {
		log.Printf("[WARN] record command: %v", err)
	}
}

func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
