// Package channels hosts the user-facing surfaces of hookchat. The web chat
// channel serves a single-page UI and relays each message through the
// webhook client, showing the normalized reply.
package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hookchat/hookchat/pkg/config"
	"github.com/hookchat/hookchat/pkg/logger"
	"github.com/hookchat/hookchat/pkg/webhook"
)

// Relay is the piece that turns a user message into a reply. Satisfied by
// *webhook.Client and *webhook.FallbackClient.
type Relay interface {
	Ask(ctx context.Context, message string) (string, error)
}

const (
	// maxLimiterEntries caps the per-IP limiter map so a scan from many
	// source addresses cannot grow it for the process lifetime.
	maxLimiterEntries = 1024
	// maxTranscriptMessages caps each in-memory transcript; oldest
	// messages are dropped first.
	maxTranscriptMessages = 200
)

type WebChatChannel struct {
	config      config.WebChatConfig
	relay       Relay
	server      *http.Server
	transcripts map[string][]chatMessage // chatID -> messages
	limiters    map[string]*rate.Limiter // client IP -> limiter
	mu          sync.RWMutex
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

type sendRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

type sendResponse struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

func NewWebChatChannel(cfg config.WebChatConfig, relay Relay) *WebChatChannel {
	return &WebChatChannel{
		config:      cfg,
		relay:       relay,
		transcripts: make(map[string][]chatMessage),
		limiters:    make(map[string]*rate.Limiter),
	}
}

func (c *WebChatChannel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.handleUI)
	mux.HandleFunc("/api/session", c.handleSession)
	mux.HandleFunc("/api/send", c.handleSend)
	mux.HandleFunc("/api/history", c.handleHistory)

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	c.server = &http.Server{Addr: addr, Handler: mux}

	logger.InfoCF("channels", "WebChat started", map[string]interface{}{"addr": addr})

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("channels", "WebChat server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (c *WebChatChannel) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

// limiterFor returns the per-client limiter, creating it on first use.
// A zero configured rate disables limiting.
func (c *WebChatChannel) limiterFor(ip string) *rate.Limiter {
	if c.config.RatePerMinute <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[ip]
	if !ok {
		if len(c.limiters) >= maxLimiterEntries {
			// Full map is dropped wholesale; live clients re-enter a
			// fresh bucket on their next request.
			c.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.config.RatePerMinute)), 5)
		c.limiters[ip] = lim
	}
	return lim
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c *WebChatChannel) record(chatID, role, content string) {
	c.mu.Lock()
	msgs := append(c.transcripts[chatID], chatMessage{
		Role:    role,
		Content: content,
		Time:    time.Now().Format("15:04:05"),
	})
	if len(msgs) > maxTranscriptMessages {
		msgs = msgs[len(msgs)-maxTranscriptMessages:]
	}
	c.transcripts[chatID] = msgs
	c.mu.Unlock()
}

// handleSession hands the page a fresh chat ID so each tab keeps its own
// transcript.
func (c *WebChatChannel) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"chat_id": uuid.NewString()})
}

func (c *WebChatChannel) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	if req.ChatID == "" {
		// Clients that skipped /api/session get an ID assigned here; the
		// response carries it so they can adopt it.
		req.ChatID = uuid.NewString()
	}

	// The transport forwards whatever it is given; emptiness is rejected
	// here at the boundary.
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message must not be empty"})
		return
	}

	if lim := c.limiterFor(clientIP(r)); lim != nil && !lim.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many messages, slow down"})
		return
	}

	c.record(req.ChatID, "user", message)

	reply, err := c.relay.Ask(r.Context(), message)
	if err != nil {
		if f, ok := webhook.AsFailure(err); ok && f.Recoverable() {
			// The flow answered with something we could not unwrap; show
			// the fixed fallback instead of raw structure.
			logger.WarnCF("channels", "Unrecognized webhook reply", map[string]interface{}{
				"chat_id": req.ChatID,
				"detail":  f.Detail,
			})
			reply = webhook.FallbackReply
		} else {
			logger.ErrorCF("channels", "Webhook exchange failed", map[string]interface{}{
				"chat_id": req.ChatID,
				"error":   err.Error(),
			})
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
	}

	c.record(req.ChatID, "assistant", reply)
	writeJSON(w, http.StatusOK, sendResponse{ChatID: req.ChatID, Message: reply})
}

func (c *WebChatChannel) handleHistory(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		chatID = "default"
	}

	c.mu.RLock()
	msgs := c.transcripts[chatID]
	c.mu.RUnlock()
	if msgs == nil {
		msgs = []chatMessage{}
	}

	writeJSON(w, http.StatusOK, msgs)
}

func (c *WebChatChannel) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, webChatHTML)
}
