// Package bus is the request/reply link between the gateway and the events
// service. Requests name a subject, carry a JSON body and are matched to their
// reply by token. The same Services table is served in-process by Local and
// over a websocket by Serve and Client.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SubjCancel tells the serving side to cancel the request with the same token.
const SubjCancel = "-"

// Msg is a request or its reply. Replies echo Subj and Tok and carry either
// Data or Err.
type Msg struct {
	Subj string          `json:"subj"`
	Tok  string          `json:"tok,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  *Fault          `json:"err,omitempty"`
}

// Fault is an error that survives the trip across the bus. Two faults match
// under errors.Is when their codes are equal.
type Fault struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return f.Code
	}
	return f.Code + ": " + f.Message
}

func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Code == f.Code
}

var (
	ErrInvalid     = &Fault{Code: "invalid"}
	ErrNotFound    = &Fault{Code: "not_found"}
	ErrConflict    = &Fault{Code: "conflict"}
	ErrCanceled    = &Fault{Code: "canceled"}
	ErrInternal    = &Fault{Code: "internal"}
	ErrUnsupported = &Fault{Code: "unsupported"}
	ErrUnavailable = &Fault{Code: "unavailable"}
)

// Errorf returns a fault of kind with a formatted message.
func Errorf(kind *Fault, format string, args ...any) *Fault {
	return &Fault{Code: kind.Code, Message: fmt.Sprintf(format, args...)}
}

// A Service handles one subject and returns the reply data.
type Service interface {
	Serve(ctx context.Context, m *Msg) (any, error)
}

type ServiceFunc func(ctx context.Context, m *Msg) (any, error)

func (f ServiceFunc) Serve(ctx context.Context, m *Msg) (any, error) { return f(ctx, m) }

// Func adapts a typed handler. An empty body decodes to the zero Req.
func Func[Req, Res any](f func(ctx context.Context, req Req) (Res, error)) Service {
	return ServiceFunc(func(ctx context.Context, m *Msg) (any, error) {
		var req Req
		if len(m.Data) != 0 {
			if err := json.Unmarshal(m.Data, &req); err != nil {
				return nil, Errorf(ErrInvalid, "malformed %s request: %v", m.Subj, err)
			}
		}
		return f(ctx, req)
	})
}

// Services maps subjects to their services.
type Services map[string]Service

// Handle serves m and returns the reply. It never returns nil.
func (s Services) Handle(ctx context.Context, m *Msg) *Msg {
	reply := &Msg{Subj: m.Subj, Tok: m.Tok}

	svc := s[m.Subj]
	if svc == nil {
		reply.Err = Errorf(ErrUnsupported, "no service for %s", m.Subj)
		return reply
	}

	res, err := svc.Serve(ctx, m)
	if err != nil {
		reply.Err = AsFault(err)
		return reply
	}

	data, err := json.Marshal(res)
	if err != nil {
		reply.Err = Errorf(ErrInternal, "encode %s reply: %v", m.Subj, err)
		return reply
	}
	reply.Data = data

	return reply
}

// AsFault returns the fault in err's chain. Context errors become ErrCanceled
// and anything else ErrInternal, without the original message.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Errorf(ErrCanceled, "%v", err)
	}

	return ErrInternal
}

// Requester sends req on subj and decodes the reply into res. A fault reply is
// returned as *Fault.
type Requester interface {
	Request(ctx context.Context, subj string, req, res any) error
}

// Local serves requests in-process. Bodies are still JSON encoded so that
// callers see exactly what a remote peer would send.
type Local struct {
	Services Services
}

func (l Local) Request(ctx context.Context, subj string, req, res any) error {
	m, err := newRequest(subj, req)
	if err != nil {
		return err
	}

	return decodeReply(l.Services.Handle(ctx, m), res)
}

func newRequest(subj string, req any) (*Msg, error) {
	m := &Msg{Subj: subj}
	if req == nil {
		return m, nil
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", subj, err)
	}
	m.Data = data

	return m, nil
}

func decodeReply(m *Msg, res any) error {
	if m.Err != nil {
		return m.Err
	}

	if res == nil || len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, res); err != nil {
		return fmt.Errorf("decode %s reply: %w", m.Subj, err)
	}

	return nil
}
