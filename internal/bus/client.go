package bus

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"eventrea/internal/lib/logger/sl"

	"github.com/gorilla/websocket"
)

// Client is a Requester over a websocket to Serve. The connection is dialed
// on first use and redialed after it drops; requests in flight when it drops
// fail with ErrUnavailable.
type Client struct {
	url    string
	log    *slog.Logger
	dialer *websocket.Dialer

	last atomic.Uint64

	mu   sync.Mutex
	conn *clientConn
}

func NewClient(log *slog.Logger, url string) *Client {
	return &Client{
		url:    url,
		log:    log,
		dialer: websocket.DefaultDialer,
	}
}

func (c *Client) Request(ctx context.Context, subj string, req, res any) error {
	m, err := newRequest(subj, req)
	if err != nil {
		return err
	}
	m.Tok = strconv.FormatUint(c.last.Add(1), 16)

	cc, err := c.connect(ctx)
	if err != nil {
		return err
	}

	ch := cc.expect(m.Tok)
	defer cc.forget(m.Tok)

	select {
	case cc.send <- m:
	case <-cc.done:
		return cc.failure()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case reply := <-ch:
		return decodeReply(reply, res)
	case <-cc.done:
		return cc.failure()
	case <-ctx.Done():
		select {
		case cc.send <- &Msg{Subj: SubjCancel, Tok: m.Tok}:
		case <-cc.done:
		default:
		}
		return ctx.Err()
	}
}

// Close drops the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	cc := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cc == nil {
		return nil
	}

	cc.close(errors.New("client closed"))

	return nil
}

func (c *Client) connect(ctx context.Context) (*clientConn, error) {
	const op = "bus.Client.connect"

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.closed() {
		return c.conn, nil
	}

	wc, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, Errorf(ErrUnavailable, "dial %s: %v", c.url, err)
	}

	c.log.Info("bus connected", slog.String("op", op), slog.String("url", c.url))

	cc := &clientConn{
		wc:      wc,
		send:    make(chan *Msg, sendBuffer),
		done:    make(chan struct{}),
		pending: make(map[string]chan *Msg),
	}
	go cc.write()
	go func() {
		err := cc.read()
		if err != nil {
			c.log.Warn("bus connection lost", slog.String("op", op), sl.Err(err))
		}
	}()

	c.conn = cc

	return cc, nil
}

type clientConn struct {
	wc   *websocket.Conn
	send chan *Msg

	done     chan struct{}
	doneOnce sync.Once
	err      error

	mu      sync.Mutex
	pending map[string]chan *Msg
}

func (cc *clientConn) expect(tok string) <-chan *Msg {
	ch := make(chan *Msg, 1)

	cc.mu.Lock()
	cc.pending[tok] = ch
	cc.mu.Unlock()

	return ch
}

func (cc *clientConn) forget(tok string) {
	cc.mu.Lock()
	delete(cc.pending, tok)
	cc.mu.Unlock()
}

func (cc *clientConn) read() error {
	for {
		var m Msg
		if err := cc.wc.ReadJSON(&m); err != nil {
			cc.close(err)
			return err
		}

		cc.mu.Lock()
		ch, ok := cc.pending[m.Tok]
		delete(cc.pending, m.Tok)
		cc.mu.Unlock()

		if ok {
			ch <- &m
		}
	}
}

func (cc *clientConn) write() {
	for {
		select {
		case m := <-cc.send:
			if err := cc.wc.WriteJSON(m); err != nil {
				cc.close(err)
				return
			}
		case <-cc.done:
			return
		}
	}
}

func (cc *clientConn) close(err error) {
	cc.doneOnce.Do(func() {
		cc.err = err
		close(cc.done)
		cc.wc.Close()
	})
}

func (cc *clientConn) closed() bool {
	select {
	case <-cc.done:
		return true
	default:
		return false
	}
}

func (cc *clientConn) failure() error {
	return Errorf(ErrUnavailable, "bus connection closed: %v", cc.err)
}
