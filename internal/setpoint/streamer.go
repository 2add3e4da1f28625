package setpoint

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/types"
)

const (
	DefaultPeriod = 100 * time.Millisecond
	DefaultIdle   = 20 * time.Millisecond
)

// PositionOnly keeps x, y and z active and ignores everything else.
const PositionOnly = common.POSITION_TARGET_TYPEMASK_VX_IGNORE |
	common.POSITION_TARGET_TYPEMASK_VY_IGNORE |
	common.POSITION_TARGET_TYPEMASK_VZ_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AX_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AY_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AZ_IGNORE |
	common.POSITION_TARGET_TYPEMASK_YAW_IGNORE |
	common.POSITION_TARGET_TYPEMASK_YAW_RATE_IGNORE

// Position is a local NED position in metres, z is down.
type Position struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Hover holds five metres above the local origin.
var Hover = Position{X: 0, Y: 0, Z: -5}

// Streamer sends the hover setpoint on every tick while the vehicle is in
// offboard.
type Streamer struct {
	link     link.Link
	phase    *types.PhaseCell
	id       types.Identity
	target   types.Identity
	position Position
	period   time.Duration
	idle     time.Duration

	seq  types.Sequence
	sent uint32
}

func New(l link.Link, phase *types.PhaseCell, id, target types.Identity, position Position, period, idle time.Duration) *Streamer {
	return &Streamer{
		link:     l,
		phase:    phase,
		id:       id,
		target:   target,
		position: position,
		period:   period,
		idle:     idle,
	}
}

func (s *Streamer) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runStreamer(ctx)
	}()
}

func (s *Streamer) Receive(message types.Message) {
}

func (s *Streamer) runStreamer(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Setpoint streamer shutting down")
			return
		case <-ticker.C:
		}

		if s.phase.Get() != types.PhaseOffboard {
			select {
			case <-ctx.Done():
			case <-time.After(s.idle):
			}
			continue
		}

		msg := s.setpoint()
		// dropped frames are retried on the next tick with a fresh sequence
		if err := s.link.Send(s.id.Header(s.seq.Next()), msg); err == nil {
			s.sent++
		}
	}
}

// setpoint builds the next frame. time_boot_ms advances one period per
// emitted setpoint; the autopilot only uses it for interpolation.
func (s *Streamer) setpoint() *common.MessageSetPositionTargetLocalNed {
	return &common.MessageSetPositionTargetLocalNed{
		TimeBootMs:      s.sent * uint32(s.period/time.Millisecond),
		TargetSystem:    s.target.SystemID,
		TargetComponent: s.target.ComponentID,
		CoordinateFrame: common.MAV_FRAME_LOCAL_NED,
		TypeMask:        PositionOnly,
		X:               s.position.X,
		Y:               s.position.Y,
		Z:               s.position.Z,
	}
}
