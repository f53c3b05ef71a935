package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceofmind/admin-sync/internal/model"
)

var errDial = errors.New("dial refused")

// fakeClient is an in-memory Client.
type fakeClient struct {
	connectErr error

	messages chan TimestampedMessage
	errors   chan error
	done     chan struct{}

	mu     sync.Mutex
	sent   []string
	closed bool
	token  string
}

func newFakeClient(connectErr error) *fakeClient {
	return &fakeClient{
		connectErr: connectErr,
		messages:   make(chan TimestampedMessage, 16),
		errors:     make(chan error, 1),
		done:       make(chan struct{}),
	}
}

func (f *fakeClient) Connect(ctx context.Context) error { return f.connectErr }

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeClient) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrNotConnected
	}
	f.sent = append(f.sent, string(data))
	return nil
}

func (f *fakeClient) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeClient) Messages() <-chan TimestampedMessage { return f.messages }
func (f *fakeClient) Errors() <-chan error                { return f.errors }
func (f *fakeClient) Done() <-chan struct{}               { return f.done }
func (f *fakeClient) IsConnected() bool                   { return f.connectErr == nil }

// fakeDialer hands out scripted clients in order; once exhausted it fails every dial.
type fakeDialer struct {
	mu      sync.Mutex
	clients []*fakeClient
	made    []*fakeClient
}

func (d *fakeDialer) factory(cfg ClientConfig, _ *slog.Logger) Client {
	d.mu.Lock()
	defer d.mu.Unlock()
	var c *fakeClient
	if len(d.clients) > 0 {
		c = d.clients[0]
		d.clients = d.clients[1:]
	} else {
		c = newFakeClient(errDial)
	}
	c.token = cfg.Token
	d.made = append(d.made, c)
	return c
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.made)
}

// fakeScheduler records retry timers instead of running them.
type fakeScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (s *fakeScheduler) schedule(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, fn)
	return func() bool { return true }
}

func (s *fakeScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// fire runs the i-th scheduled timer.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	fn := s.fns[i]
	s.mu.Unlock()
	fn()
}

type fakeSession struct {
	loggedIn atomic.Bool
}

func newFakeSession(loggedIn bool) *fakeSession {
	s := &fakeSession{}
	s.loggedIn.Store(loggedIn)
	return s
}

func (s *fakeSession) IsLoggedIn() bool    { return s.loggedIn.Load() }
func (s *fakeSession) AccessToken() string { return "token-1" }

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) HandleMessage(msg TimestampedMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, string(msg.Data))
	r.mu.Unlock()
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func newTestChannel(url string, d *fakeDialer, s *fakeScheduler, sess Session, h MessageHandler) *Channel {
	cfg := DefaultChannelConfig()
	cfg.URL = url
	opts := []ChannelOption{WithClientFactory(d.factory), WithScheduler(s.schedule)}
	if sess != nil {
		opts = append(opts, WithSession(sess))
	}
	return NewChannel(cfg, h, nil, nil, opts...)
}

func TestChannel_BackoffSequence(t *testing.T) {
	d := &fakeDialer{}
	s := &fakeScheduler{}
	ch := newTestChannel("wss://admin.example.com/ws/analytics/", d, s, newFakeSession(true), nil)

	err := ch.Connect(context.Background())
	require.ErrorIs(t, err, errDial)
	assert.Equal(t, StateDisconnected, ch.State())

	for i := 0; i < 4; i++ {
		s.fire(i)
	}
	// The fifth retry fails too, with no budget left.
	s.fire(4)

	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	assert.Equal(t, want, s.Delays())
	assert.Equal(t, 6, d.Dials())
	assert.True(t, ch.Terminal())
	assert.Equal(t, ConnectionErrorMessage, ch.Errors().Value())
}

func TestChannel_LoopbackSuppressesErrorText(t *testing.T) {
	for _, url := range []string{"ws://localhost:8000/ws/analytics/", "ws://127.0.0.1:8000/ws/analytics/", "ws://[::1]:8000/ws/"} {
		t.Run(url, func(t *testing.T) {
			ch := newTestChannel(url, &fakeDialer{}, &fakeScheduler{}, nil, nil)

			var published []string
			ch.Errors().Subscribe(func(s string) { published = append(published, s) })

			_ = ch.Connect(context.Background())
			require.Len(t, published, 2)
			assert.Equal(t, "", published[1])
		})
	}
}

func TestChannel_ConnectSuccess(t *testing.T) {
	c := newFakeClient(nil)
	d := &fakeDialer{clients: []*fakeClient{c}}
	ch := newTestChannel("wss://admin.example.com/ws/analytics/", d, &fakeScheduler{}, newFakeSession(true), nil)

	var states []bool
	ch.Connected().Subscribe(func(v bool) { states = append(states, v) })

	require.NoError(t, ch.Connect(context.Background()))

	assert.Equal(t, StateConnected, ch.State())
	assert.Equal(t, []bool{false, true}, states)
	assert.Equal(t, "", ch.Errors().Value())
	assert.Equal(t, "token-1", c.token)
	assert.Equal(t, []string{`{"type":"ping"}`}, c.Sent(), "keep-alive probe sent on open")
}

func TestChannel_ConnectIdempotent(t *testing.T) {
	d := &fakeDialer{clients: []*fakeClient{newFakeClient(nil)}}
	ch := newTestChannel("wss://admin.example.com/ws/", d, &fakeScheduler{}, nil, nil)

	require.NoError(t, ch.Connect(context.Background()))
	require.NoError(t, ch.Connect(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ch.Connect(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, d.Dials())
}

func TestChannel_SendRequiresConnected(t *testing.T) {
	ch := newTestChannel("wss://admin.example.com/ws/", &fakeDialer{}, &fakeScheduler{}, nil, nil)

	assert.False(t, ch.RequestAnalytics(model.PeriodWeek, ""))
	assert.Equal(t, int64(1), ch.Stats().Dropped)
}

func TestChannel_RequestAnalytics(t *testing.T) {
	c := newFakeClient(nil)
	ch := newTestChannel("wss://admin.example.com/ws/", &fakeDialer{clients: []*fakeClient{c}}, &fakeScheduler{}, nil, nil)
	require.NoError(t, ch.Connect(context.Background()))

	require.True(t, ch.RequestAnalytics(model.PeriodMonth, "req-1"))
	sent := c.Sent()
	require.Len(t, sent, 2)
	assert.JSONEq(t, `{"type":"request_analytics","period":"month","request_id":"req-1"}`, sent[1])
}

func TestChannel_RetryAbandonedWhenLoggedOut(t *testing.T) {
	d := &fakeDialer{}
	s := &fakeScheduler{}
	sess := newFakeSession(true)
	ch := newTestChannel("wss://admin.example.com/ws/", d, s, sess, nil)

	_ = ch.Connect(context.Background())
	require.Len(t, s.Delays(), 1)

	sess.loggedIn.Store(false)
	s.fire(0)

	assert.Equal(t, 1, d.Dials(), "no dial after session expired")
	assert.Len(t, s.Delays(), 1)
	assert.True(t, ch.Terminal())
}

func TestChannel_StaleTimerAfterDisconnect(t *testing.T) {
	d := &fakeDialer{}
	s := &fakeScheduler{}
	ch := newTestChannel("wss://admin.example.com/ws/", d, s, newFakeSession(true), nil)

	_ = ch.Connect(context.Background())
	ch.Disconnect()
	s.fire(0)

	assert.Equal(t, 1, d.Dials())
	assert.True(t, ch.Terminal())
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestChannel_StaleTimerAfterManualConnect(t *testing.T) {
	d := &fakeDialer{clients: []*fakeClient{newFakeClient(errDial), newFakeClient(nil)}}
	s := &fakeScheduler{}
	ch := newTestChannel("wss://admin.example.com/ws/", d, s, newFakeSession(true), nil)

	_ = ch.Connect(context.Background())
	require.NoError(t, ch.Connect(context.Background()))
	s.fire(0)

	assert.Equal(t, 2, d.Dials(), "timer from the earlier generation is discarded")
	assert.True(t, ch.IsConnected())
}

func TestChannel_UnexpectedCloseSchedulesRetry(t *testing.T) {
	first := newFakeClient(nil)
	second := newFakeClient(nil)
	d := &fakeDialer{clients: []*fakeClient{first, second}}
	s := &fakeScheduler{}
	ch := newTestChannel("wss://admin.example.com/ws/", d, s, newFakeSession(true), nil)

	require.NoError(t, ch.Connect(context.Background()))
	first.errors <- &websocket.CloseError{Code: websocket.CloseAbnormalClosure}

	require.Eventually(t, func() bool { return len(s.Delays()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateDisconnected, ch.State())
	assert.Equal(t, 1, ch.Stats().Attempts)

	s.fire(0)
	assert.True(t, ch.IsConnected())
	assert.Equal(t, 0, ch.Stats().Attempts, "attempts reset on open")
}

func TestChannel_DisconnectIsTerminal(t *testing.T) {
	c := newFakeClient(nil)
	s := &fakeScheduler{}
	ch := newTestChannel("wss://admin.example.com/ws/", &fakeDialer{clients: []*fakeClient{c}}, s, nil, nil)
	require.NoError(t, ch.Connect(context.Background()))

	ch.Disconnect()

	assert.True(t, ch.Terminal())
	assert.False(t, ch.Connected().Value())
	assert.Empty(t, s.Delays())
	select {
	case <-c.Done():
	default:
		t.Fatal("client not closed")
	}
}

func TestChannel_ReconnectResetsAttempts(t *testing.T) {
	d := &fakeDialer{}
	s := &fakeScheduler{}
	ch := newTestChannel("wss://admin.example.com/ws/", d, s, newFakeSession(true), nil)

	_ = ch.Connect(context.Background())
	for i := 0; i < 5; i++ {
		s.fire(i)
	}
	require.True(t, ch.Terminal())

	_ = ch.Reconnect(context.Background())
	delays := s.Delays()
	assert.Equal(t, time.Second, delays[len(delays)-1], "budget restarts at base delay")
}

func TestChannel_ForwardsMessagesInOrder(t *testing.T) {
	c := newFakeClient(nil)
	rec := &recorder{}
	ch := newTestChannel("wss://admin.example.com/ws/", &fakeDialer{clients: []*fakeClient{c}}, &fakeScheduler{}, nil, rec)
	require.NoError(t, ch.Connect(context.Background()))
	defer ch.Disconnect()

	for _, m := range []string{"1", "2", "3"} {
		c.messages <- TimestampedMessage{Data: []byte(m), ReceivedAt: time.Now()}
	}

	require.Eventually(t, func() bool { return len(rec.Messages()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1", "2", "3"}, rec.Messages())
}

func TestChannel_WithWebSocketServer(t *testing.T) {
	pinged := make(chan string, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		pinged <- string(msg)
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	rec := &recorder{}
	cfg := DefaultChannelConfig()
	cfg.URL = wsURL(server)
	ch := NewChannel(cfg, rec, nil, nil)

	require.NoError(t, ch.Connect(context.Background()))
	defer ch.Disconnect()

	select {
	case msg := <-pinged:
		assert.JSONEq(t, `{"type":"ping"}`, msg)
	case <-time.After(time.Second):
		t.Fatal("server did not receive ping")
	}

	require.Eventually(t, func() bool { return len(rec.Messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"type":"pong"}`, rec.Messages()[0])
}
