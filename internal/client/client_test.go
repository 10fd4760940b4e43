package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"seqkv/internal/wire"
)

// fakeNode is a minimal stand-in for a real seqkv node: it accepts
// client_write/client_read/exit on /message and replies by POSTing a
// write_result/read_result back to the envelope's return_addr, exactly as
// a real replica would.
func fakeNode(t *testing.T, onExit func()) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env wire.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)

		switch env.Type {
		case wire.TypeClientWrite:
			var m wire.ClientWrite
			_ = json.Unmarshal(env.Payload, &m)
			idx := 0
			go replyTo(t, m.ReturnAddr, wire.TypeWriteResult, wire.WriteResult{
				Keys: m.Keys, Values: m.Values, OrderIndex: &idx,
			})
		case wire.TypeClientRead:
			var m wire.ClientRead
			_ = json.Unmarshal(env.Payload, &m)
			values := make([]wire.Value, len(m.Keys))
			indexes := make([]*int, len(m.Keys))
			for i := range m.Keys {
				values[i] = "stub-value"
				idx := 7
				indexes[i] = &idx
			}
			go replyTo(t, m.ReturnAddr, wire.TypeReadResult, wire.ReadResult{
				Keys: m.Keys, Values: values, OrderIndex: indexes,
			})
		case wire.TypeExit:
			if onExit != nil {
				onExit()
			}
		}
	}))
	return srv
}

func replyTo(t *testing.T, to wire.Host, msgType string, payload any) {
	env, err := wire.NewEnvelope(msgType, payload)
	if err != nil {
		t.Errorf("building reply envelope: %v", err)
		return
	}
	body, _ := json.Marshal(env)
	url := "http://" + to.String() + "/message"
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Errorf("posting reply: %v", err)
		return
	}
	resp.Body.Close()
}

func serverHost(t *testing.T, srv *httptest.Server) wire.Host {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return wire.Host{Address: u.Hostname(), Port: port}
}

func TestClientWriteRoundTrip(t *testing.T) {
	srv := fakeNode(t, nil)
	defer srv.Close()

	c := New([]wire.Host{serverHost(t, srv)}, 2*time.Second)

	result, err := c.Put(context.Background(), "k1", "v1")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(result.Keys) != 1 || result.Keys[0] != "k1" || result.Values[0] != "v1" {
		t.Fatalf("got %+v", result)
	}
	if result.OrderIndex == nil || *result.OrderIndex != 0 {
		t.Fatalf("got order index %+v, want 0", result.OrderIndex)
	}

	key, value, orderIndex, ok := result.Scalar()
	if !ok || key != "k1" || value != "v1" || orderIndex == nil || *orderIndex != 0 {
		t.Fatalf("Scalar() = %q, %q, %v, %v", key, value, orderIndex, ok)
	}
}

func TestClientReadRoundTrip(t *testing.T) {
	srv := fakeNode(t, nil)
	defer srv.Close()

	c := New([]wire.Host{serverHost(t, srv)}, 2*time.Second)

	result, err := c.Get(context.Background(), "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result.Values[0] != "stub-value" {
		t.Fatalf("got %+v", result)
	}

	value, _, ok := result.Scalar()
	if !ok || value != "stub-value" {
		t.Fatalf("Scalar() = %q, %v", value, ok)
	}
}

func TestClientExitSendsExitMessage(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := fakeNode(t, func() { received <- struct{}{} })
	defer srv.Close()

	c := New([]wire.Host{serverHost(t, srv)}, 2*time.Second)
	target := serverHost(t, srv)

	if err := c.Exit(context.Background(), target); err != nil {
		t.Fatalf("Exit: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for exit to be received")
	}
}

func TestClientWriteTimesOutWithoutReply(t *testing.T) {
	// A node that accepts the write but never replies.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New([]wire.Host{serverHost(t, srv)}, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := c.Put(ctx, "k1", "v1"); err == nil {
		t.Fatal("expected an error when the node never replies")
	}
}
