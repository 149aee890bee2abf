package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCallAccepted(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Call(context.Background(), map[string]string{"type": "DECLINE"})
	require.NoError(t, err)
	assert.Equal(t, "DECLINE", received["type"])
}

func TestClientCallErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "framework not subscribed", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Call(context.Background(), map[string]string{"type": "KILL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "framework not subscribed")
}

func TestClientSubscribeCapturesStreamID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))

		if call["type"] == "SUBSCRIBE" {
			w.Header().Set("Mesos-Stream-Id", "stream-123")
			w.WriteHeader(http.StatusOK)
			flusher := w.(http.Flusher)
			require.NoError(t, WriteRecord(w, []byte(`{"type":"SUBSCRIBED"}`)))
			require.NoError(t, WriteRecord(w, []byte(`{"type":"HEARTBEAT"}`)))
			flusher.Flush()
			return
		}

		// Non-subscribe calls must carry the stream id of the session.
		assert.Equal(t, "stream-123", r.Header.Get("Mesos-Stream-Id"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	stream, err := client.Subscribe(context.Background(), map[string]string{"type": "SUBSCRIBE"})
	require.NoError(t, err)
	defer stream.Close()

	record, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"SUBSCRIBED"}`, string(record))

	record, err = stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"HEARTBEAT"}`, string(record))

	require.NoError(t, client.Call(context.Background(), map[string]string{"type": "ACKNOWLEDGE"}))
}

func TestClientSubscribeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no master elected", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Subscribe(context.Background(), map[string]string{"type": "SUBSCRIBE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no master elected")
}

func TestStreamCloseUnblocksNext(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		require.NoError(t, WriteRecord(w, []byte(`{"type":"SUBSCRIBED"}`)))
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL)
	stream, err := client.Subscribe(context.Background(), map[string]string{"type": "SUBSCRIBE"})
	require.NoError(t, err)

	_, err = stream.Next()
	require.NoError(t, err)

	<-started
	errs := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		errs <- err
	}()
	require.NoError(t, stream.Close())

	err = <-errs
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
