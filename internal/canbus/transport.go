package canbus

import (
	"context"
	"net"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/sim"
)

// Transmitter sends one frame.
type Transmitter interface {
	TransmitFrame(ctx context.Context, frame can.Frame) error
}

// SocketCAN is a Transmitter bound to one SocketCAN interface such as vcan0.
type SocketCAN struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

func Dial(ctx context.Context, iface string) (*SocketCAN, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcan dial %s", iface)
	}
	return &SocketCAN{conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (s *SocketCAN) TransmitFrame(ctx context.Context, frame can.Frame) error {
	return s.tx.TransmitFrame(ctx, frame)
}

func (s *SocketCAN) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Publisher encodes wheel commands and writes them to a Transmitter.
type Publisher struct {
	codec  Codec
	tx     Transmitter
	logger golog.Logger

	ctx    context.Context
	sent   int
	failed int
}

func NewPublisher(ctx context.Context, codec Codec, tx Transmitter, logger golog.Logger) *Publisher {
	return &Publisher{codec: codec, tx: tx, logger: logger, ctx: ctx}
}

// Publish sends one frame per wheel. It stops at the first failed frame.
func (p *Publisher) Publish(ctx context.Context, ws kinematics.WheelState, volts []float64) error {
	frames, err := p.codec.EncodeSetpoints(ws, volts)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := p.tx.TransmitFrame(ctx, f); err != nil {
			p.failed++
			return errors.Wrapf(err, "transmit 0x%X", f.ID)
		}
		p.sent++
		p.logger.Debugw("frame", "id", f.ID, "data", f.Data[:f.Length])
	}
	return nil
}

// OnStep publishes the setpoints of each simulated tick. Failures are logged
// and do not stop the run.
func (p *Publisher) OnStep(s sim.Sample) {
	if s.Setpoints == nil {
		return
	}
	if err := p.Publish(p.ctx, s.Setpoints, s.Volts); err != nil {
		p.logger.Warnw("can publish failed", "t", s.Time, "error", err)
	}
}

// Sent and Failed count frames since the publisher was created.
func (p *Publisher) Sent() int   { return p.sent }
func (p *Publisher) Failed() int { return p.failed }

var _ sim.Observer = (*Publisher)(nil)
