package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookchat/hookchat/pkg/config"
	"github.com/hookchat/hookchat/pkg/webhook"
)

type stubRelay struct {
	reply string
	err   error
	asked []string
}

func (s *stubRelay) Ask(ctx context.Context, message string) (string, error) {
	s.asked = append(s.asked, message)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func testChannel(relay Relay) *WebChatChannel {
	return NewWebChatChannel(config.WebChatConfig{RatePerMinute: 0}, relay)
}

func postSend(t *testing.T, c *WebChatChannel, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(body))
	w := httptest.NewRecorder()
	c.handleSend(w, req)
	return w
}

func TestHandleSendRelaysAndRecords(t *testing.T) {
	relay := &stubRelay{reply: "hi there"}
	c := testChannel(relay)

	w := postSend(t, c, `{"chat_id":"default","message":"  hello  "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp sendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hi there", resp.Message)
	// The boundary trims before relaying.
	assert.Equal(t, []string{"hello"}, relay.asked)

	// Both sides land in the transcript.
	hw := httptest.NewRecorder()
	c.handleHistory(hw, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	var msgs []chatMessage
	require.NoError(t, json.Unmarshal(hw.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Content)
}

func TestHandleSendRejectsEmptyMessage(t *testing.T) {
	relay := &stubRelay{reply: "never"}
	c := testChannel(relay)

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`} {
		w := postSend(t, c, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Empty(t, relay.asked)
}

func TestHandleSendRecoverableFailureShowsFallback(t *testing.T) {
	relay := &stubRelay{err: &webhook.Failure{Kind: webhook.FailureUnrecognizedShape, Detail: `{"foo":"bar"}`}}
	c := testChannel(relay)

	w := postSend(t, c, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp sendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, webhook.FallbackReply, resp.Message)
	// Raw structure never leaks into the rendered reply.
	assert.NotContains(t, resp.Message, `{"foo"`)
}

func TestHandleSendHardFailurePropagates(t *testing.T) {
	relay := &stubRelay{err: &webhook.Failure{Kind: webhook.FailureHTTP, Status: 500, Detail: "boom"}}
	c := testChannel(relay)

	w := postSend(t, c, `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	// The upstream body stays out of the transcript.
	hw := httptest.NewRecorder()
	c.handleHistory(hw, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.NotContains(t, hw.Body.String(), "boom")
}

func TestHandleSendRateLimit(t *testing.T) {
	relay := &stubRelay{reply: "ok"}
	c := NewWebChatChannel(config.WebChatConfig{RatePerMinute: 1}, relay)

	var limited bool
	// Burst allows a few; hammering past it must trip 429.
	for i := 0; i < 10; i++ {
		w := postSend(t, c, `{"message":"hello"}`)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}

func TestHandleSessionIssuesUniqueChatIDs(t *testing.T) {
	c := testChannel(&stubRelay{})

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		c.handleSession(w, httptest.NewRequest(http.MethodGet, "/api/session", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp["chat_id"])
		ids[resp["chat_id"]] = true
	}
	assert.Len(t, ids, 3)
}

func TestHandleSendAssignsChatID(t *testing.T) {
	relay := &stubRelay{reply: "hi"}
	c := testChannel(relay)

	first := postSend(t, c, `{"message":"hello"}`)
	second := postSend(t, c, `{"message":"hello again"}`)

	var a, b sendResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	// Without a session each send gets its own transcript.
	assert.NotEmpty(t, a.ChatID)
	assert.NotEmpty(t, b.ChatID)
	assert.NotEqual(t, a.ChatID, b.ChatID)
}

func TestLimiterMapStaysBounded(t *testing.T) {
	c := NewWebChatChannel(config.WebChatConfig{RatePerMinute: 60}, &stubRelay{})

	for i := 0; i < maxLimiterEntries+50; i++ {
		c.limiterFor(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.LessOrEqual(t, len(c.limiters), maxLimiterEntries)
}

func TestTranscriptDropsOldestBeyondCap(t *testing.T) {
	c := testChannel(&stubRelay{})

	total := maxTranscriptMessages + 40
	for i := 0; i < total; i++ {
		c.record("chat", "user", fmt.Sprintf("m%d", i))
	}

	w := httptest.NewRecorder()
	c.handleHistory(w, httptest.NewRequest(http.MethodGet, "/api/history?chat_id=chat", nil))
	var msgs []chatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs, maxTranscriptMessages)
	assert.Equal(t, fmt.Sprintf("m%d", total-maxTranscriptMessages), msgs[0].Content)
	assert.Equal(t, fmt.Sprintf("m%d", total-1), msgs[len(msgs)-1].Content)
}

func TestHandleHistoryEmptyChat(t *testing.T) {
	c := testChannel(&stubRelay{})
	w := httptest.NewRecorder()
	c.handleHistory(w, httptest.NewRequest(http.MethodGet, "/api/history?chat_id=nope", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
