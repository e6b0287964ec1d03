// Package client connects a frontend to launcherd. A Session owns the one
// event subscription of its client, mirrors state events into a Store and
// issues launch commands over the same socket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
	ws "github.com/noriskclient/launcherd/pkg/websocket"
)

const (
	writeWait = 10 * time.Second
	closeWait = 2 * time.Second
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	dialer  *websocket.Dialer
	header  http.Header
	history int
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithHistory keeps the last limit events in a History.
func WithHistory(limit int) Option {
	return func(o *options) { o.history = limit }
}

// Session is one client's connection to launcherd.
type Session struct {
	conn    *websocket.Conn
	store   *Store
	history *History
	logger  *zap.Logger

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *ws.Message

	done      chan struct{}
	closeOnce sync.Once
	readErr   error
	wg        sync.WaitGroup
}

// Dial connects to the launcherd websocket at addr. addr may be an http(s)
// or ws(s) URL; a missing path defaults to /ws.
func Dial(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	o := options{logger: zap.NewNop(), dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&o)
	}

	target, err := socketURL(addr)
	if err != nil {
		return nil, err
	}

	conn, resp, err := o.dialer.DialContext(ctx, target, o.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	s := &Session{
		conn:    conn,
		store:   newStore(),
		logger:  o.logger.With(zap.String("component", "launcher-client")),
		pending: make(map[string]chan *ws.Message),
		done:    make(chan struct{}),
	}
	if o.history > 0 {
		s.history = NewHistory(o.history)
	}

	s.wg.Add(1)
	go s.readLoop()
	return s, nil
}

func socketURL(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Store returns the session's event store.
func (s *Session) Store() *Store { return s.store }

// History returns the event history, or nil unless WithHistory was given.
func (s *Session) History() *History { return s.history }

// Done is closed once the read loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns why the read loop stopped, or nil after a clean Close.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.readErr
	default:
		return nil
	}
}

// Close tears down the subscription and waits for the read loop. After Close
// returns the Store is never written again.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		s.writeMu.Unlock()

		select {
		case <-s.done:
		case <-time.After(closeWait):
		}
		err = s.conn.Close()
		s.wg.Wait()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}

func (s *Session) readLoop() {
	defer s.wg.Done()
	defer s.failPending()

	for {
		var msg ws.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.readErr = err
			}
			return
		}

		switch msg.Type {
		case ws.MessageTypeNotification:
			s.handleNotification(&msg)
		case ws.MessageTypeResponse, ws.MessageTypeError:
			s.resolve(&msg)
		}
	}
}

func (s *Session) handleNotification(msg *ws.Message) {
	if msg.Action != ws.ActionStateEvent {
		return
	}
	var payload v1.EventPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Warn("dropping undecodable state event", zap.Error(err))
		return
	}
	if s.history != nil {
		s.history.Add(payload)
	}
	s.store.set(payload)
}

func (s *Session) resolve(msg *ws.Message) {
	s.pendingMu.Lock()
	ch, ok := s.pending[msg.ID]
	delete(s.pending, msg.ID)
	s.pendingMu.Unlock()
	if !ok {
		s.logger.Debug("reply without pending request", zap.String("id", msg.ID), zap.String("action", msg.Action))
		return
	}
	ch <- msg
}

func (s *Session) failPending() {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	close(s.done)
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}

// request sends action and decodes the reply payload into out.
func (s *Session) request(ctx context.Context, action string, payload, out interface{}) error {
	id := uuid.New().String()
	msg, err := ws.NewRequest(id, action, payload)
	if err != nil {
		return err
	}

	ch := make(chan *ws.Message, 1)
	s.pendingMu.Lock()
	select {
	case <-s.done:
		s.pendingMu.Unlock()
		return ErrClosed
	default:
	}
	s.pending[id] = ch
	s.pendingMu.Unlock()

	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = s.conn.WriteJSON(msg)
	s.writeMu.Unlock()
	if err != nil {
		s.forget(id)
		return fmt.Errorf("send %s: %w", action, err)
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if reply.Type == ws.MessageTypeError {
			p := reply.ParseError()
			return &CommandError{Action: action, Code: p.Code, Message: p.Message}
		}
		if out == nil {
			return nil
		}
		return reply.ParsePayload(out)
	case <-ctx.Done():
		s.forget(id)
		return ctx.Err()
	}
}

func (s *Session) forget(id string) {
	s.pendingMu.Lock()
	delete(s.pending, id)
	s.pendingMu.Unlock()
}

// LaunchProfile starts a launch of profileID and returns its metadata. It
// fails with ErrAlreadyLaunching if one is already in flight. Progress and
// the outcome arrive as state events.
func (s *Session) LaunchProfile(ctx context.Context, profileID string) (v1.ProcessMetadata, error) {
	var meta v1.ProcessMetadata
	err := s.request(ctx, ws.ActionLaunchProfile, ws.ProfileRequest{ProfileID: profileID}, &meta)
	return meta, err
}

// AbortProfileLaunch requests cancellation. It fails with ErrNotLaunching
// if nothing is in flight.
func (s *Session) AbortProfileLaunch(ctx context.Context, profileID string) error {
	return s.request(ctx, ws.ActionAbortProfileLaunch, ws.ProfileRequest{ProfileID: profileID}, nil)
}

// IsProfileLaunching reports whether profileID has a launch in flight.
func (s *Session) IsProfileLaunching(ctx context.Context, profileID string) (bool, *v1.ProcessMetadata, error) {
	var status v1.LaunchStatus
	if err := s.request(ctx, ws.ActionIsProfileLaunching, ws.ProfileRequest{ProfileID: profileID}, &status); err != nil {
		return false, nil, err
	}
	return status.Launching, status.Process, nil
}

// ListLaunches returns every in-flight launch.
func (s *Session) ListLaunches(ctx context.Context) ([]v1.ProcessMetadata, error) {
	var resp struct {
		Launches []v1.ProcessMetadata `json:"launches"`
	}
	if err := s.request(ctx, ws.ActionListLaunches, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Launches, nil
}
