package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody outboundEnvelope

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"reply":"hi"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Send(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "hello", gotBody.Message)
	assert.Equal(t, 200, resp.Status)
	assert.True(t, resp.OK)
	assert.Equal(t, `{"reply":"hi"}`, resp.Body)
}

func TestClientSendNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	// A non-2xx exchange is still a completed exchange: Send reports it
	// without error and the classification happens in Normalize.
	resp, err := NewClient(srv.URL).Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Equal(t, "upstream exploded", resp.Body)

	_, err = Normalize(resp)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureHTTP, f.Kind)
	assert.Equal(t, http.StatusBadGateway, f.Status)
}

func TestClientSendNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := NewClient(srv.URL).Send(context.Background(), "hello")
	require.Error(t, err)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, f.Kind)
	assert.False(t, f.Recoverable())
}

func TestClientSendUnreadableBody(t *testing.T) {
	// Promise more bytes than are sent; the read then dies mid-body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("short"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Send(context.Background(), "hello")
	require.Error(t, err)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureUnreadableBody, f.Kind)
	assert.True(t, f.Recoverable())
}

func TestClientSendContextCanceled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL).Send(ctx, "hello")
	require.Error(t, err)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, f.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"output":"hi\\nthere"}]`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL).Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi\nthere", reply)
}
