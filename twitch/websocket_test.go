package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, tr *WSTransport) TransportEvent {
	t.Helper()
	select {
	case ev := <-tr.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return TransportEvent{}
	}
}

func TestWSTransportRoundTrip(t *testing.T) {
	received := make(chan string, 1)
	closeNow := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		received <- string(data)
		if err := conn.Write(ctx, websocket.MessageText, []byte("PING :tmi.twitch.tv\r\n")); err != nil {
			return
		}
		<-closeNow
		_ = conn.Close(websocket.StatusGoingAway, "bye")
	}))
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv), time.Second, zerolog.Nop())
	require.NoError(t, tr.Connect())

	ev := nextEvent(t, tr)
	require.Equal(t, TransportConnected, ev.Kind)
	assert.True(t, tr.Connected())

	require.NoError(t, tr.Send("NICK bot"))
	select {
	case line := <-received:
		assert.Equal(t, "NICK bot\r\n", line)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not receive line")
	}

	ev = nextEvent(t, tr)
	require.Equal(t, TransportMessage, ev.Kind)
	assert.Equal(t, "PING :tmi.twitch.tv\r\n", ev.Payload)

	close(closeNow)
	ev = nextEvent(t, tr)
	require.Equal(t, TransportClosed, ev.Kind)
	assert.Equal(t, int(websocket.StatusGoingAway), ev.Code)
	assert.Equal(t, "bye", ev.Reason)
	assert.False(t, tr.Connected())
}

func TestWSTransportDispatchFeedsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if strings.HasPrefix(string(data), "NICK ") {
				_ = conn.Write(ctx, websocket.MessageText, []byte(globalUserState+"\r\n"))
			}
		}
	}))
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv), time.Second, zerolog.Nop())
	s := NewSession(tr, zerolog.Nop())
	rec := &recorder{}
	s.AddHandler(rec)

	require.NoError(t, s.Connect(Options{Username: "bot", Password: "pw"}))
	ctx := context.Background()
	tr.Dispatch(ctx, nextEvent(t, tr), s)
	require.Equal(t, PhaseAwaitingAuth, s.Phase())

	tr.Dispatch(ctx, nextEvent(t, tr), s)
	assert.Equal(t, PhaseAuthenticated, s.Phase())
	assert.Equal(t, []string{"connected", "auth_success"}, rec.names())

	s.Disconnect(ctx)
	assert.False(t, tr.Connected())
}

func TestWSTransportCloseDoesNotReportClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.Read(r.Context())
	}))
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv), time.Second, zerolog.Nop())
	require.NoError(t, tr.Connect())
	require.Equal(t, TransportConnected, nextEvent(t, tr).Kind)

	require.NoError(t, tr.Close())
	assert.False(t, tr.Connected())
	assert.ErrorIs(t, tr.Send("PING"), ErrNotConnected)

	select {
	case ev := <-tr.Events():
		t.Fatalf("unexpected event after Close: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWSTransportDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	tr := NewWSTransport(url, time.Second, zerolog.Nop())
	require.NoError(t, tr.Connect())

	ev := nextEvent(t, tr)
	assert.Equal(t, TransportFailed, ev.Kind)
	assert.Error(t, ev.Err)
	assert.False(t, tr.Connected())
}

func TestWSTransportDropsStaleEvents(t *testing.T) {
	tr := NewWSTransport("ws://127.0.0.1:0", time.Second, zerolog.Nop())
	s, _, rec := newTestSession(t)

	tr.Dispatch(context.Background(), TransportEvent{Kind: TransportMessage, Payload: "PING :x", gen: tr.gen.Load() + 1}, s)
	assert.Empty(t, rec.events)
}
