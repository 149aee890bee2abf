package operator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultRequestTimeout = 30 * time.Second

// client POSTs operator calls to one daemon's /api/v1 endpoint. All calls
// are synchronous request/response; none stream.
type client struct {
	url        string
	httpClient *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &client{
		url:        strings.TrimSuffix(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// call sends one operator call. out may be nil for calls whose success is
// conveyed by the status code alone (202 Accepted).
func (c *client) call(ctx context.Context, in *Call, out *Response) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "encoding %s call", in.Type)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "building %s request", in.Type)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "sending %s call", in.Type)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s response", in.Type)
		}
		return nil
	case http.StatusAccepted:
		return nil
	default:
		msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("%s call returned %s: %s", in.Type, resp.Status, bytes.TrimSpace(msg))
	}
}
