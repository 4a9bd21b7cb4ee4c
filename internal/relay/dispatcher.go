// Package relay forwards content between paired users.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/session"
)

// Transport delivers content to a user. It returns domain.ErrUnsupportedContent
// when it cannot reproduce a media type, and any other error when the
// recipient could not be reached.
type Transport interface {
	Send(ctx context.Context, to domain.UserID, c domain.Content) error
}

// Sessions is the part of the session registry the relay needs.
type Sessions interface {
	Get(id domain.UserID) (session.Info, bool)
	CloseSession(sid session.ID) (session.Info, bool)
	Touch(id domain.UserID)
}

type Outcome int

const (
	Delivered Outcome = iota + 1
	NoActiveSession
	DeliveryFailed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case NoActiveSession:
		return "no_active_session"
	case DeliveryFailed:
		return "delivery_failed"
	}
	return "unknown"
}

// Result carries the outcome plus the session that was closed because of a
// delivery failure, so the caller can tell the sender.
type Result struct {
	Outcome Outcome
	Partner domain.UserID
	Closed  session.Info
}

type Dispatcher struct {
	sessions  Sessions
	transport Transport
	log       *slog.Logger
}

func NewDispatcher(sessions Sessions, transport Transport, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{sessions: sessions, transport: transport, log: log}
}

// Relay forwards c from sender to its partner. Only the content travels; the
// sender's identity is never added to it.
//
// A send failure is taken as proof the partner is gone: the session is closed
// so the sender is not left paired with nobody.
func (d *Dispatcher) Relay(ctx context.Context, sender domain.UserID, c domain.Content) (Result, error) {
	current, ok := d.sessions.Get(sender)
	if !ok {
		return Result{Outcome: NoActiveSession}, domain.ErrNoActiveSession
	}
	partner := current.Other(sender)

	err := d.transport.Send(ctx, partner, c)
	if errors.Is(err, domain.ErrUnsupportedContent) && c.IsMedia() {
		d.log.Debug("media not supported, sending placeholder", "kind", c.Media)
		err = d.transport.Send(ctx, partner, domain.Text(c.Placeholder()))
	}
	if err != nil {
		// Close by id: if the pair already changed meanwhile, leave the new
		// session alone.
		closed, _ := d.sessions.CloseSession(current.ID)
		d.log.Warn("relay failed, session closed",
			"user_id", sender,
			"session_id", closed.ID,
			"err", err,
		)
		return Result{Outcome: DeliveryFailed, Partner: partner, Closed: closed},
			fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	d.sessions.Touch(sender)
	return Result{Outcome: Delivered, Partner: partner}, nil
}
