package heartbeat

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/pkg/errors"

	"github.com/tassalor1/vtol/internal/flightmode"
	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/types"
)

// Observer is the receive task. It drives the phase machine off vehicle
// heartbeats and prints one line per transition.
type Observer struct {
	link         link.Link
	phase        *types.PhaseCell
	out          io.Writer
	offboardMain uint8

	lastState types.VehicleState
	stateSeen bool
}

func NewObserver(l link.Link, phase *types.PhaseCell, out io.Writer) *Observer {
	return &Observer{
		link:         l,
		phase:        phase,
		out:          out,
		offboardMain: flightmode.Lookup(flightmode.Offboard).MainMode,
	}
}

func (o *Observer) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.runReceiver(ctx, post)
	}()
}

func (o *Observer) Receive(message types.Message) {
}

func (o *Observer) runReceiver(ctx context.Context, post types.PostFn) {
	for {
		fr, err := o.link.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Observer shutting down")
				return
			}
			if errors.Cause(err) == link.ErrClosed {
				log.Println("Observer: link closed")
				return
			}
			log.Printf("Observer: receive failed: %v", err)
			continue
		}
		o.handleFrame(fr, post)
	}
}

func (o *Observer) handleFrame(fr link.Frame, post types.PostFn) {
	m, ok := fr.Message.(*common.MessageHeartbeat)
	if !ok {
		return
	}

	hb := types.HeartbeatFromMessage(m)
	if hb.FromStation() {
		return
	}

	state := hb.State()
	if !o.stateSeen || state != o.lastState {
		o.stateSeen = true
		o.lastState = state
		post(types.CreateMessage(types.MessageVehicleState, types.Vehicle, types.Station, state))
	}

	from, to, changed := o.phase.Advance(hb, o.offboardMain)
	if !changed {
		return
	}

	fmt.Fprintf(o.out, "→ %s\n", to)
	post(types.CreateMessage(types.MessagePhaseChanged, types.Vehicle, types.Station, types.PhaseChanged{From: from, To: to}))
}
