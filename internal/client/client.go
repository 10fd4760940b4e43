// Package client provides a Go SDK for talking to a seqkv cluster.
//
// Big idea:
//
// Instead of writing raw HTTP requests everywhere,
// we wrap them inside a clean Go API.
//
// So instead of:
//
//	http.NewRequest(...)
//	json.Marshal(...)
//
// Users can simply call:
//
//	client.Put(ctx, "key", "value")
//	client.Get(ctx, "key")
//
// This is called a "client library" or "SDK", the role spec.md §1
// scopes out as an external collaborator. It hides:
//   - HTTP details
//   - JSON encoding/decoding
//   - Matching an async reply back to the call that triggered it
//
// That last part is the interesting bit: nothing on the wire carries a
// request id (wire.WriteResult/wire.ReadResult have none), so a call here
// opens a short-lived local HTTP listener and hands its address as the
// return_addr — the client is, for the duration of one call, just another
// addressable wire.Host, and the reply is simply the next message it
// receives.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"seqkv/internal/wire"
)

// WriteResult is the SDK-facing reply to a write. OrderIndex is nil when
// the replica replied before the orderer assigned an index
// (order_on_write == false), mirroring wire.WriteResult.
type WriteResult struct {
	Keys       []wire.Key
	Values     []wire.Value
	OrderIndex *int
}

// Scalar flattens a single-key WriteResult to its bare key, value and
// order index, matching spec.md §6's single-key reply shape. ok is false
// for a batch result of any other size.
func (wr WriteResult) Scalar() (key wire.Key, value wire.Value, orderIndex *int, ok bool) {
	if len(wr.Keys) != 1 || len(wr.Values) != 1 {
		return "", "", nil, false
	}
	return wr.Keys[0], wr.Values[0], wr.OrderIndex, true
}

// ReadResult is the SDK-facing reply to a read. A key never written
// reports a zero Value and a nil OrderIndex.
type ReadResult struct {
	Keys       []wire.Key
	Values     []wire.Value
	OrderIndex []*int
}

// Scalar flattens a single-key ReadResult to its bare value and order
// index. ok is false for a batch result of any other size.
func (rr ReadResult) Scalar() (value wire.Value, orderIndex *int, ok bool) {
	if len(rr.Keys) != 1 {
		return "", nil, false
	}
	return rr.Values[0], rr.OrderIndex[0], true
}

// Client talks to a fixed, known cluster of hosts.
//
// Important:
//
// This client does not implement any distributed logic itself
// (replication, ordering) — the cluster does that. The client only picks
// which node to contact and frames messages.
type Client struct {
	hosts      []wire.Host
	ring       *ring
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a Client that may contact any of hosts.
//
// timeout bounds both the outbound HTTP POST and how long Write/Read wait
// for a reply; it defaults to 10s if zero.
//
// In distributed systems: NEVER call network without a timeout.
func New(hosts []wire.Host, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.String()
	}
	return &Client{
		hosts:      hosts,
		ring:       newRing(names, 0),
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// defaultHost picks a contact node via the client-side ring
// (internal/client/ring.go); any host works for any key since every node
// can answer for any key. It always looks up the fixed ring key "default",
// so the pick depends only on the host list, not on the keys of the
// request: every call that does not name a target goes to the same host.
func (c *Client) defaultHost() (wire.Host, error) {
	if len(c.hosts) == 0 {
		return wire.Host{}, fmt.Errorf("client: no hosts configured")
	}
	name, ok := c.ring.pick("default")
	if !ok {
		return c.hosts[0], nil
	}
	for _, h := range c.hosts {
		if h.String() == name {
			return h, nil
		}
	}
	return c.hosts[0], nil
}

// Put stores key=value in the cluster. It is a single-key convenience
// wrapper around Write.
func (c *Client) Put(ctx context.Context, key wire.Key, value wire.Value) (WriteResult, error) {
	return c.Write(ctx, []wire.Key{key}, []wire.Value{value})
}

// Write submits a batch write to a default-chosen node and blocks until
// the write_result callback arrives, or ctx is done.
func (c *Client) Write(ctx context.Context, keys []wire.Key, values []wire.Value) (WriteResult, error) {
	target, err := c.defaultHost()
	if err != nil {
		return WriteResult{}, err
	}
	return c.WriteTo(ctx, target, keys, values)
}

// WriteTo submits a batch write to a specific node.
func (c *Client) WriteTo(ctx context.Context, target wire.Host, keys []wire.Key, values []wire.Value) (WriteResult, error) {
	ch, err := c.writeAsyncTo(ctx, target, keys, values)
	if err != nil {
		return WriteResult{}, err
	}
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return WriteResult{}, ctx.Err()
	case <-time.After(c.timeout):
		return WriteResult{}, fmt.Errorf("client: write timed out waiting for %v", keys)
	}
}

// WriteAsync submits a batch write and returns immediately with a channel
// that receives the result once the write_result callback arrives,
// letting a caller have many writes in flight at once.
func (c *Client) WriteAsync(ctx context.Context, keys []wire.Key, values []wire.Value) (<-chan WriteResult, error) {
	target, err := c.defaultHost()
	if err != nil {
		return nil, err
	}
	return c.writeAsyncTo(ctx, target, keys, values)
}

func (c *Client) writeAsyncTo(ctx context.Context, target wire.Host, keys []wire.Key, values []wire.Value) (<-chan WriteResult, error) {
	cb, returnAddr, err := newCallback()
	if err != nil {
		return nil, err
	}

	out := make(chan WriteResult, 1)
	go func() {
		defer cb.close()
		select {
		case env := <-cb.received:
			var wr wire.WriteResult
			if json.Unmarshal(env.Payload, &wr) == nil {
				out <- WriteResult{Keys: wr.Keys, Values: wr.Values, OrderIndex: wr.OrderIndex}
			}
		case <-ctx.Done():
		case <-time.After(c.timeout):
		}
	}()

	if err := c.send(ctx, target, wire.TypeClientWrite, wire.ClientWrite{
		Keys: keys, Values: values, ReturnAddr: returnAddr,
	}); err != nil {
		cb.close()
		return nil, err
	}
	return out, nil
}

// Get retrieves value for key. It is a single-key convenience wrapper
// around Read.
func (c *Client) Get(ctx context.Context, key wire.Key) (ReadResult, error) {
	return c.Read(ctx, []wire.Key{key})
}

// Read submits a batch read to a default-chosen node and blocks until the
// matching read_result callback arrives.
func (c *Client) Read(ctx context.Context, keys []wire.Key) (ReadResult, error) {
	target, err := c.defaultHost()
	if err != nil {
		return ReadResult{}, err
	}
	return c.ReadFrom(ctx, target, keys)
}

// ReadFrom submits a batch read to a specific node.
func (c *Client) ReadFrom(ctx context.Context, target wire.Host, keys []wire.Key) (ReadResult, error) {
	cb, returnAddr, err := newCallback()
	if err != nil {
		return ReadResult{}, err
	}
	defer cb.close()

	if err := c.send(ctx, target, wire.TypeClientRead, wire.ClientRead{
		Keys: keys, ReturnAddr: returnAddr,
	}); err != nil {
		return ReadResult{}, err
	}

	select {
	case env := <-cb.received:
		var rr wire.ReadResult
		if err := json.Unmarshal(env.Payload, &rr); err != nil {
			return ReadResult{}, err
		}
		return ReadResult{Keys: rr.Keys, Values: rr.Values, OrderIndex: rr.OrderIndex}, nil
	case <-ctx.Done():
		return ReadResult{}, ctx.Err()
	case <-time.After(c.timeout):
		return ReadResult{}, fmt.Errorf("client: read timed out waiting for %v", keys)
	}
}

// Exit asks target to cleanly shut down.
func (c *Client) Exit(ctx context.Context, target wire.Host) error {
	return c.send(ctx, target, wire.TypeExit, wire.Exit{})
}

// send POSTs an Envelope to target's /message endpoint. Kept small and
// self-contained rather than reusing internal/transport.HTTPSender: the
// client is a standalone collaborator speaking the same wire protocol, not
// a transport-layer component of a node.
func (c *Client) send(ctx context.Context, to wire.Host, msgType string, payload any) error {
	env, err := wire.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s/message", to.String()), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s to %s: %w", msgType, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s to %s: HTTP %d", msgType, to, resp.StatusCode)
	}
	return nil
}

// callback is a one-shot local HTTP listener that receives exactly one
// envelope (a write_result or read_result) and is then discarded.
type callback struct {
	server   *http.Server
	received chan wire.Envelope
}

func newCallback() (*callback, wire.Host, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, wire.Host{}, err
	}

	cb := &callback{received: make(chan wire.Envelope, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc("/message", func(w http.ResponseWriter, r *http.Request) {
		var env wire.Envelope
		if json.NewDecoder(r.Body).Decode(&env) == nil {
			select {
			case cb.received <- env:
			default:
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	cb.server = &http.Server{Handler: mux}
	go cb.server.Serve(listener)

	port := listener.Addr().(*net.TCPAddr).Port
	return cb, wire.Host{Address: "127.0.0.1", Port: port}, nil
}

func (cb *callback) close() {
	_ = cb.server.Close()
}
