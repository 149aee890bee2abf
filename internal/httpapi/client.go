package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"sync"

	"github.com/pkg/errors"
)

const streamIDHeader = "Mesos-Stream-Id"

// Client sends v1 API calls to a single master or agent endpoint, e.g.
// http://master:5050/api/v1/scheduler. One Client backs one subscription:
// the stream id returned by the daemon on SUBSCRIBE is attached to every
// subsequent call so the daemon can correlate them with the session.
type Client struct {
	url        string
	httpClient *http.Client

	mu       sync.Mutex
	streamID string
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			// No overall timeout: subscription responses are long-lived
			// streams. Per-call deadlines come from the context.
		},
	}
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) setStreamID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamID = id
}

// Call sends one non-subscribe call and waits for the daemon to accept it.
// The daemon acknowledges with 202 Accepted and an empty body; any other
// status is an error. Calls never return results: effects are observed
// asynchronously on the event stream.
func (c *Client) Call(ctx context.Context, call interface{}) error {
	body, err := json.Marshal(call)
	if err != nil {
		return errors.Wrap(err, "encoding call")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building call request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	if c.streamID != "" {
		req.Header.Set(streamIDHeader, c.streamID)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending call")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// Subscribe sends a SUBSCRIBE call and returns the resulting event stream.
// The response stays open for the lifetime of the subscription; the caller
// reads RecordIO-framed events from the returned Stream until error or EOF.
func (c *Client) Subscribe(ctx context.Context, call interface{}) (*Stream, error) {
	body, err := json.Marshal(call)
	if err != nil {
		return nil, errors.Wrap(err, "encoding subscribe call")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building subscribe request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending subscribe call")
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}

	c.setStreamID(resp.Header.Get(streamIDHeader))
	return &Stream{body: resp.Body, records: NewRecordReader(resp.Body)}, nil
}

func responseError(resp *http.Response) error {
	msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1024))
	return errors.Errorf("endpoint returned %s: %s", resp.Status, bytes.TrimSpace(msg))
}

// Stream is one open subscription. Next is not safe for concurrent use; the
// driver's event loop is its only reader.
type Stream struct {
	body    io.ReadCloser
	records *RecordReader
}

// Next blocks until the next event record arrives or the stream closes.
// Heartbeat-based liveness is enforced by the connection manager closing the
// stream, which unblocks a pending Next with an error.
func (s *Stream) Next() ([]byte, error) {
	return s.records.ReadRecord()
}

func (s *Stream) Close() error {
	return s.body.Close()
}
