package setpoint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/pkg/errors"

	"github.com/tassalor1/vtol/internal/link/linktest"
	"github.com/tassalor1/vtol/internal/types"
)

var (
	station = types.Identity{SystemID: 1, ComponentID: 191}
	vehicle = types.Identity{SystemID: 1, ComponentID: 1}
)

func armedOffboard() types.Heartbeat {
	return types.Heartbeat{
		Type:       common.MAV_TYPE_FIXED_WING,
		BaseMode:   common.MAV_MODE_FLAG_SAFETY_ARMED,
		CustomMode: 6 << 16,
	}
}

func toOffboard(phase *types.PhaseCell) {
	for i := 0; i < 3; i++ {
		phase.Advance(armedOffboard(), 6)
	}
}

type streamRun struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startStreamer(s *Streamer) *streamRun {
	ctx, cancel := context.WithCancel(context.Background())
	r := &streamRun{cancel: cancel}
	s.Run(ctx, &r.wg, func(types.Message) {})
	return r
}

func (r *streamRun) stop() {
	r.cancel()
	r.wg.Wait()
}

func TestSetpointPayload(t *testing.T) {
	s := New(linktest.NewFake(), types.NewPhaseCell(), station, vehicle, Hover, DefaultPeriod, DefaultIdle)
	m := s.setpoint()

	if m.X != 0 || m.Y != 0 || m.Z != -5 {
		t.Errorf("position = %v, %v, %v", m.X, m.Y, m.Z)
	}
	if m.CoordinateFrame != common.MAV_FRAME_LOCAL_NED {
		t.Errorf("CoordinateFrame = %v", m.CoordinateFrame)
	}
	if m.TypeMask != PositionOnly {
		t.Errorf("TypeMask = %v", m.TypeMask)
	}
	if m.TargetSystem != 1 || m.TargetComponent != 1 {
		t.Errorf("target = %d/%d", m.TargetSystem, m.TargetComponent)
	}
	if m.TimeBootMs != 0 {
		t.Errorf("TimeBootMs = %d", m.TimeBootMs)
	}
}

func TestPositionOnlyMask(t *testing.T) {
	// bits 3..11 set except the force flag, position bits clear
	if uint16(PositionOnly) != 0x0DF8 {
		t.Errorf("PositionOnly = %#04x", uint16(PositionOnly))
	}
}

func TestNothingSentBeforeOffboard(t *testing.T) {
	fake := linktest.NewFake()
	phase := types.NewPhaseCell()
	phase.Advance(armedOffboard(), 7) // Connected
	phase.Advance(armedOffboard(), 7) // Armed, wrong mode so no further

	r := startStreamer(New(fake, phase, station, vehicle, Hover, 2*time.Millisecond, time.Millisecond))
	time.Sleep(50 * time.Millisecond)
	r.stop()

	if phase.Get() != types.PhaseArmed {
		t.Fatalf("phase = %v", phase.Get())
	}
	if n := len(fake.Sent()); n != 0 {
		t.Errorf("%d setpoints sent outside offboard", n)
	}
}

func TestStreamsInOffboard(t *testing.T) {
	fake := linktest.NewFake()
	phase := types.NewPhaseCell()
	toOffboard(phase)

	period := 2 * time.Millisecond
	r := startStreamer(New(fake, phase, station, vehicle, Hover, period, time.Millisecond))
	time.Sleep(60 * time.Millisecond)
	r.stop()

	sent := fake.SentWithID((&common.MessageSetPositionTargetLocalNed{}).GetID())
	if len(sent) < 5 {
		t.Fatalf("only %d setpoints sent", len(sent))
	}
	for i, s := range sent {
		if s.Header.SystemID != 1 || s.Header.ComponentID != 191 || s.Header.Sequence != uint8(i) {
			t.Errorf("setpoint %d: header %+v", i, s.Header)
		}
		m := s.Message.(*common.MessageSetPositionTargetLocalNed)
		if m.TimeBootMs != uint32(i)*uint32(period/time.Millisecond) {
			t.Errorf("setpoint %d: TimeBootMs = %d", i, m.TimeBootMs)
		}
		if m.Z != -5 {
			t.Errorf("setpoint %d: Z = %v", i, m.Z)
		}
	}
}

func TestRetriesAfterSendError(t *testing.T) {
	fake := linktest.NewFake()
	fake.FailSends(errors.New("network unreachable"))
	phase := types.NewPhaseCell()
	toOffboard(phase)

	r := startStreamer(New(fake, phase, station, vehicle, Hover, 2*time.Millisecond, time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	fake.FailSends(nil)
	time.Sleep(40 * time.Millisecond)
	r.stop()

	sent := fake.Sent()
	if len(sent) == 0 {
		t.Fatal("streamer stopped after send errors")
	}
	// failed sends do not advance the boot clock
	first := sent[0].Message.(*common.MessageSetPositionTargetLocalNed)
	if first.TimeBootMs != 0 {
		t.Errorf("first delivered TimeBootMs = %d, want 0", first.TimeBootMs)
	}
}
