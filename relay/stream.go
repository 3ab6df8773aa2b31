package relay

import (
	"context"
	"io"
	"sync"

	"github.com/goccy/go-json"
)

// StreamTransport sends commands as JSON values over a byte stream such as
// a net.Conn.
type StreamTransport struct {
	conn io.ReadWriteCloser
	enc  *json.Encoder
	dec  *json.Decoder

	sendMu sync.Mutex
	recvMu sync.Mutex
}

func NewStreamTransport(conn io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

func (t *StreamTransport) Send(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.enc.Encode(cmd)
}

// Recv blocks until a command arrives. ctx is only checked before reading;
// close the transport to unblock a pending Recv.
func (t *StreamTransport) Recv(ctx context.Context) (Command, error) {
	var cmd Command
	if err := ctx.Err(); err != nil {
		return cmd, err
	}
	t.recvMu.Lock()
	defer t.recvMu.Unlock()
	err := t.dec.Decode(&cmd)
	return cmd, err
}

func (t *StreamTransport) Close() error {
	return t.conn.Close()
}
