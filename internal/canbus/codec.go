package canbus

import (
	"fmt"
	"math"

	"go.einride.tech/can"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
)

const (
	DefaultSetpointBase = 0x200
	DefaultFeedbackBase = 0x280

	setpointLength = 6
	feedbackLength = 8

	velocityScale = 1000.0
	angleScale    = 100.0
	voltageScale  = 1000.0
	distanceScale = 10000.0
)

// Setpoint is the command for one wheel or module.
type Setpoint struct {
	Velocity float64 // m/s
	Angle    float64 // rad
	Voltage  float64 // V
}

// Feedback is what one wheel or module reports.
type Feedback struct {
	Distance float64 // m
	Velocity float64 // m/s
	Angle    float64 // rad
}

type Codec struct {
	SetpointBase uint32
	FeedbackBase uint32
}

func NewCodec(setpointBase, feedbackBase uint32) Codec {
	return Codec{SetpointBase: setpointBase, FeedbackBase: feedbackBase}
}

// Setpoints flattens a wheel command into per-wheel setpoints. volts may be
// nil or shorter than the wheel count; missing entries are zero.
func Setpoints(ws kinematics.WheelState, volts []float64) []Setpoint {
	var out []Setpoint
	switch s := ws.(type) {
	case kinematics.DifferentialState:
		out = []Setpoint{{Velocity: s.LeftVelocity}, {Velocity: s.RightVelocity}}
	case kinematics.SwerveState:
		out = make([]Setpoint, len(s.Modules))
		for i, m := range s.Modules {
			out[i] = Setpoint{Velocity: m.Velocity, Angle: m.Angle}
		}
	}
	for i := range out {
		if i < len(volts) {
			out[i].Voltage = volts[i]
		}
	}
	return out
}

func (c Codec) EncodeSetpoints(ws kinematics.WheelState, volts []float64) ([]can.Frame, error) {
	sps := Setpoints(ws, volts)
	frames := make([]can.Frame, 0, len(sps))
	for i, sp := range sps {
		f, err := c.EncodeSetpoint(i, sp)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func (c Codec) EncodeSetpoint(index int, sp Setpoint) (can.Frame, error) {
	f := can.Frame{ID: c.SetpointBase + uint32(index), Length: setpointLength}
	f.Data.SetSignedBitsLittleEndian(0, 16, quantize(sp.Velocity, velocityScale, 16))
	f.Data.SetSignedBitsLittleEndian(16, 16, quantize(geometry.Degrees(geometry.NormalizeAngle(sp.Angle)), angleScale, 16))
	f.Data.SetSignedBitsLittleEndian(32, 16, quantize(sp.Voltage, voltageScale, 16))
	if err := f.Validate(); err != nil {
		return can.Frame{}, fmt.Errorf("setpoint %d: %w", index, err)
	}
	return f, nil
}

// DecodeSetpoint returns the wheel index and setpoint carried by f.
func (c Codec) DecodeSetpoint(f can.Frame) (int, Setpoint, error) {
	index, err := c.index(f, c.SetpointBase, setpointLength)
	if err != nil {
		return 0, Setpoint{}, err
	}
	return index, Setpoint{
		Velocity: float64(f.Data.SignedBitsLittleEndian(0, 16)) / velocityScale,
		Angle:    geometry.Radians(float64(f.Data.SignedBitsLittleEndian(16, 16)) / angleScale),
		Voltage:  float64(f.Data.SignedBitsLittleEndian(32, 16)) / voltageScale,
	}, nil
}

func (c Codec) EncodeFeedback(index int, fb Feedback) (can.Frame, error) {
	f := can.Frame{ID: c.FeedbackBase + uint32(index), Length: feedbackLength}
	f.Data.SetSignedBitsLittleEndian(0, 32, quantize(fb.Distance, distanceScale, 32))
	f.Data.SetSignedBitsLittleEndian(32, 16, quantize(fb.Velocity, velocityScale, 16))
	f.Data.SetSignedBitsLittleEndian(48, 16, quantize(geometry.Degrees(geometry.NormalizeAngle(fb.Angle)), angleScale, 16))
	if err := f.Validate(); err != nil {
		return can.Frame{}, fmt.Errorf("feedback %d: %w", index, err)
	}
	return f, nil
}

func (c Codec) DecodeFeedback(f can.Frame) (int, Feedback, error) {
	index, err := c.index(f, c.FeedbackBase, feedbackLength)
	if err != nil {
		return 0, Feedback{}, err
	}
	return index, Feedback{
		Distance: float64(f.Data.SignedBitsLittleEndian(0, 32)) / distanceScale,
		Velocity: float64(f.Data.SignedBitsLittleEndian(32, 16)) / velocityScale,
		Angle:    geometry.Radians(float64(f.Data.SignedBitsLittleEndian(48, 16)) / angleScale),
	}, nil
}

// FeedbackState assembles per-wheel feedback, ordered by index, into the
// WheelState the model's odometry expects.
func FeedbackState(model kinematics.Model, fb []Feedback) (kinematics.WheelState, error) {
	switch z := model.Zero().(type) {
	case kinematics.DifferentialState:
		if len(fb) != 2 {
			return nil, fmt.Errorf("differential feedback needs 2 wheels, got %d", len(fb))
		}
		return kinematics.DifferentialState{
			LeftVelocity:  fb[0].Velocity,
			RightVelocity: fb[1].Velocity,
			LeftDistance:  fb[0].Distance,
			RightDistance: fb[1].Distance,
		}, nil
	case kinematics.SwerveState:
		if len(fb) != len(z.Modules) {
			return nil, fmt.Errorf("swerve feedback needs %d modules, got %d", len(z.Modules), len(fb))
		}
		for i, f := range fb {
			z.Modules[i] = kinematics.ModuleState{Velocity: f.Velocity, Angle: f.Angle, Distance: f.Distance}
		}
		return z, nil
	}
	return nil, fmt.Errorf("unsupported model %T", model)
}

func (c Codec) index(f can.Frame, base uint32, length uint8) (int, error) {
	if f.IsRemote || f.IsExtended {
		return 0, fmt.Errorf("frame 0x%X: unexpected frame type", f.ID)
	}
	if f.ID < base || f.ID >= base+0x80 {
		return 0, fmt.Errorf("frame 0x%X outside 0x%X block", f.ID, base)
	}
	if f.Length < length {
		return 0, fmt.Errorf("frame 0x%X expects DLC %d, got %d", f.ID, length, f.Length)
	}
	return int(f.ID - base), nil
}

// quantize scales v, rounds it and saturates to a signed field of bits.
func quantize(v, scale float64, bits uint) int64 {
	limit := float64(int64(1)<<(bits-1)) - 1
	if math.IsNaN(v) {
		return 0
	}
	raw := math.Round(v * scale)
	if raw > limit {
		return int64(limit)
	}
	if raw < -limit-1 {
		return int64(-limit - 1)
	}
	return int64(raw)
}
