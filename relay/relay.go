// Package relay routes named commands to local handlers and forwards them
// to a remote peer.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

var (
	ErrUnknownCommand = errors.New("relay: no handler for command")
	ErrNoTransport    = errors.New("relay: no transport")
)

// Command is one simulation input, stamped with the tick it applies to.
type Command struct {
	Name    string          `json:"name"`
	Tick    uint64          `json:"tick"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewCommand encodes payload into a command.
func NewCommand(name string, tick uint64, payload any) (Command, error) {
	cmd := Command{Name: name, Tick: tick}
	if payload == nil {
		return cmd, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return cmd, fmt.Errorf("relay: encode %s: %w", name, err)
	}
	cmd.Payload = raw
	return cmd, nil
}

// Decode unmarshals the payload into v.
func (c Command) Decode(v any) error {
	if len(c.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Payload, v); err != nil {
		return fmt.Errorf("relay: decode %s: %w", c.Name, err)
	}
	return nil
}

type HandlerFunc func(ctx context.Context, cmd Command) error

// Transport moves commands to and from a peer.
type Transport interface {
	Send(ctx context.Context, cmd Command) error
	Recv(ctx context.Context) (Command, error)
	Close() error
}

type Relay struct {
	handlers  map[string]HandlerFunc
	transport Transport
	log       *zap.Logger
}

// New creates a relay. transport may be nil for a local-only relay.
func New(transport Transport, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		handlers:  make(map[string]HandlerFunc),
		transport: transport,
		log:       logger,
	}
}

// Handle registers fn for name, replacing any earlier handler.
func (r *Relay) Handle(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

// Dispatch runs the local handler for cmd.
func (r *Relay) Dispatch(ctx context.Context, cmd Command) error {
	fn, ok := r.handlers[cmd.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	return fn(ctx, cmd)
}

// Send applies cmd locally when a handler exists and forwards it to the
// peer.
func (r *Relay) Send(ctx context.Context, cmd Command) error {
	if _, ok := r.handlers[cmd.Name]; ok {
		if err := r.Dispatch(ctx, cmd); err != nil {
			return err
		}
	}
	if r.transport == nil {
		return nil
	}
	if err := r.transport.Send(ctx, cmd); err != nil {
		return fmt.Errorf("relay: send %s: %w", cmd.Name, err)
	}
	r.log.Debug("command sent", zap.String("name", cmd.Name), zap.Uint64("tick", cmd.Tick))
	return nil
}

// Receive waits for one command from the peer and dispatches it.
func (r *Relay) Receive(ctx context.Context) (Command, error) {
	if r.transport == nil {
		return Command{}, ErrNoTransport
	}
	cmd, err := r.transport.Recv(ctx)
	if err != nil {
		return cmd, err
	}
	r.log.Debug("command received", zap.String("name", cmd.Name), zap.Uint64("tick", cmd.Tick))
	return cmd, r.Dispatch(ctx, cmd)
}

func (r *Relay) Close() error {
	if r.transport == nil {
		return nil
	}
	return r.transport.Close()
}
