package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"seqkv/internal/wire"
)

// HTTPSender implements replica.Sender by POSTing an Envelope to the
// target host's /message endpoint. It is the concrete realization of
// spec.md §1's "transport substrate" external collaborator, built in the
// teacher repo's idiom of a small http.Client wrapper
// (internal/cluster/replication.go's makeRequest) rather than a raw
// datagram socket.
type HTTPSender struct {
	client *http.Client
}

// NewHTTPSender creates a sender with a bounded per-request timeout, as the
// teacher repo's replicator does for its peer HTTP client.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSender{client: &http.Client{Timeout: timeout}}
}

// Send implements replica.Sender.
func (s *HTTPSender) Send(ctx context.Context, to wire.Host, msgType string, payload any) error {
	env, err := wire.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/message", to.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s to %s: HTTP %d", msgType, to, resp.StatusCode)
	}
	return nil
}
