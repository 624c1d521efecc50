package bus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"eventrea/internal/lib/logger/sl"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	sendBuffer   = 32
)

// Serve upgrades the request to a websocket and serves services on it until
// the peer goes away. Each request runs in its own goroutine and is canceled
// when the peer sends SubjCancel for its token or disconnects.
func Serve(log *slog.Logger, services Services) http.HandlerFunc {
	upgr := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "bus.Serve"

		log := log.With(
			slog.String("op", op),
			slog.String("remote_addr", r.RemoteAddr),
		)

		wc, err := upgr.Upgrade(w, r, nil)
		if err != nil {
			log.Error("websocket upgrade failed", sl.Err(err))
			return
		}

		log.Info("bus peer connected")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := &session{
			log:      log,
			wc:       wc,
			services: services,
			send:     make(chan *Msg, sendBuffer),
			inflight: make(map[string]context.CancelFunc),
		}

		written := make(chan struct{})
		go func() {
			defer close(written)
			s.write()
		}()

		err = s.read(ctx)
		cancel()
		s.wg.Wait()
		close(s.send)
		<-written

		if err != nil {
			log.Error("bus peer read failed", sl.Err(err))
			return
		}
		log.Info("bus peer disconnected")
	}
}

type session struct {
	log      *slog.Logger
	wc       *websocket.Conn
	services Services
	send     chan *Msg
	wg       sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

func (s *session) read(ctx context.Context) error {
	s.wc.SetReadDeadline(time.Now().Add(pongWait))
	s.wc.SetPongHandler(func(string) error {
		return s.wc.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var m Msg
		if err := s.wc.ReadJSON(&m); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		}

		if m.Subj == SubjCancel {
			s.cancel(m.Tok)
			continue
		}

		reqCtx, cancel := context.WithCancel(ctx)
		s.track(m.Tok, cancel)

		s.wg.Add(1)
		go func(m *Msg) {
			defer s.wg.Done()
			defer s.untrack(m.Tok, cancel)

			reply := s.services.Handle(reqCtx, m)
			if reply.Err != nil {
				s.log.Debug("bus request failed",
					slog.String("subj", m.Subj),
					slog.String("code", reply.Err.Code),
				)
			}

			select {
			case s.send <- reply:
			case <-ctx.Done():
			}
		}(&m)
	}
}

func (s *session) write() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	defer s.wc.Close()

	for {
		select {
		case m, ok := <-s.send:
			if !ok {
				s.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
				s.wc.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			s.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.wc.WriteJSON(m); err != nil {
				s.log.Warn("bus write failed", sl.Err(err))
				s.drain()
				return
			}
		case <-t.C:
			s.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drain()
				return
			}
		}
	}
}

// drain closes the socket so the reader stops, then discards replies until
// send is closed.
func (s *session) drain() {
	s.wc.Close()
	for range s.send {
	}
}

func (s *session) track(tok string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight[tok] = cancel
}

func (s *session) untrack(tok string, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, tok)
}

func (s *session) cancel(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.inflight[tok]; ok {
		cancel()
		delete(s.inflight, tok)
	}
}
