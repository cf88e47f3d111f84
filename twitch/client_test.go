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

	"tmi-chatter/config"
)

// fakeTMI отвечает на NICK строкой reply и складывает входящие строки в lines.
func fakeTMI(t *testing.T, reply string) (*httptest.Server, chan string) {
	t.Helper()
	lines := make(chan string, 64)
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
			line := strings.TrimSuffix(string(data), "\r\n")
			select {
			case lines <- line:
			default:
			}
			if strings.HasPrefix(line, "NICK ") {
				_ = conn.Write(ctx, websocket.MessageText, []byte(reply+"\r\n"))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, lines
}

func waitLine(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case line := <-lines:
			if line == want {
				return
			}
		case <-deadline:
			t.Fatalf("server never received %q", want)
		}
	}
}

func testConfig(url string) config.TwitchConfig {
	return config.TwitchConfig{
		Username:             "bot",
		OAuthToken:           "oauth:pw",
		Channels:             []string{"dallas"},
		AutoReconnect:        true,
		CommandPrefix:        "!",
		MaxReconnectInterval: time.Second,
		ServerURL:            url,
	}
}

func TestClientStopsOnAuthFailure(t *testing.T) {
	srv, _ := fakeTMI(t, ":tmi.twitch.tv NOTICE * :Login authentication failed")

	failed := make(chan string, 1)
	client := NewClient(testConfig(wsURL(srv)), zerolog.Nop(), HandlerFunc(func(_ context.Context, ev Event) {
		if e, ok := ev.(AuthFailed); ok {
			failed <- e.Reason
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Run(ctx)
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, "Login authentication failed", <-failed)
	assert.Equal(t, PhaseDisconnected, client.Phase())
}

func TestClientJoinsSaysAndQuits(t *testing.T) {
	srv, lines := fakeTMI(t, globalUserState)

	var client *Client
	client = NewClient(testConfig(wsURL(srv)), zerolog.Nop(), HandlerFunc(func(_ context.Context, ev Event) {
		if _, ok := ev.(AuthSuccess); ok {
			assert.NoError(t, client.Say("dallas", "hello"))
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	waitLine(t, lines, "PASS oauth:pw")
	waitLine(t, lines, "NICK bot")
	waitLine(t, lines, "JOIN #dallas")
	waitLine(t, lines, "PRIVMSG #dallas :hello")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	waitLine(t, lines, "QUIT :Goodbye")
	assert.Equal(t, PhaseDisconnected, client.Phase())
}

func TestClientQueueFull(t *testing.T) {
	client := NewClient(testConfig("ws://127.0.0.1:1"), zerolog.Nop())
	for i := 0; i < callQueueSize; i++ {
		require.NoError(t, client.Join("dallas"))
	}
	assert.ErrorIs(t, client.Part("dallas"), ErrQueueFull)
}
