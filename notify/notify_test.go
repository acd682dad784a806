package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func TestNewWithoutURL(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), RunEvent{Model: "ARIMA"}))
	assert.NoError(t, p.Close())
}

func TestPublish(t *testing.T) {
	url := startServer(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("test.runs.>", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	p, err := New(Config{URL: url, SubjectPrefix: "test.runs"})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	event := RunEvent{
		RunID:     "run-1",
		City:      "Berlin",
		Model:     "SARIMA",
		Horizon:   7,
		Features:  []string{"Mean Temperature"},
		Failed:    []string{},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))

	select {
	case msg := <-msgs:
		assert.Equal(t, "test.runs.sarima", msg.Subject)
		var got RunEvent
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, event, got)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &raw))
		assert.Contains(t, raw, "run_id")
		assert.Contains(t, raw, "created_at")
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishWithoutModel(t *testing.T) {
	url := startServer(t)
	conn, err := nats.Connect(url)
	require.NoError(t, err)
	n := NewWithConn(conn, "", 0)
	defer func() { _ = n.Close() }()

	assert.Equal(t, "weathercast.runs.lstm", n.Subject("LSTM"))
	assert.Error(t, n.Publish(context.Background(), RunEvent{City: "Oslo"}))
}

func TestNewUnreachable(t *testing.T) {
	_, err := New(Config{URL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
}
