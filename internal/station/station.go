package station

import (
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/tassalor1/vtol/internal/heartbeat"
	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/setpoint"
	"github.com/tassalor1/vtol/internal/types"
)

const busCapacity = 100

var (
	DefaultID     = types.Identity{SystemID: 1, ComponentID: 191}
	DefaultTarget = types.Identity{SystemID: 1, ComponentID: 1}
)

// Options configures a Station. Zero values fall back to DefaultID,
// DefaultTarget, setpoint.Hover and the package default periods.
type Options struct {
	ID             types.Identity
	Target         types.Identity
	Hover          setpoint.Position
	BeaconPeriod   time.Duration
	SetpointPeriod time.Duration
	SetpointIdle   time.Duration
	// Stdout receives the phase transition lines, os.Stdout if nil.
	Stdout io.Writer
	// Handlers are extra bus participants, e.g. the telemetry uplink.
	Handlers []types.MessageHandler
}

// Station ties the heartbeat observer, the station beacon and the setpoint
// streamer to one link and one phase cell.
type Station struct {
	phase *types.PhaseCell
	bus   *types.MessageBus
}

func New(l link.Link, opts Options) *Station {
	if opts.ID == (types.Identity{}) {
		opts.ID = DefaultID
	}
	if opts.Target == (types.Identity{}) {
		opts.Target = DefaultTarget
	}
	if opts.Hover == (setpoint.Position{}) {
		opts.Hover = setpoint.Hover
	}
	if opts.BeaconPeriod == 0 {
		opts.BeaconPeriod = heartbeat.DefaultPeriod
	}
	if opts.SetpointPeriod == 0 {
		opts.SetpointPeriod = setpoint.DefaultPeriod
	}
	if opts.SetpointIdle == 0 {
		opts.SetpointIdle = setpoint.DefaultIdle
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	phase := types.NewPhaseCell()
	handlers := []types.MessageHandler{
		types.NewLogger(),
		heartbeat.NewObserver(l, phase, opts.Stdout),
		heartbeat.NewBeacon(l, opts.ID, opts.BeaconPeriod),
		setpoint.New(l, phase, opts.ID, opts.Target, opts.Hover, opts.SetpointPeriod, opts.SetpointIdle),
	}
	handlers = append(handlers, opts.Handlers...)

	return &Station{
		phase: phase,
		bus:   types.NewMessageBus(make(chan types.Message, busCapacity), handlers...),
	}
}

// Start launches all tasks. They stop when ctx is cancelled; wg tracks them.
func (s *Station) Start(ctx context.Context, wg *sync.WaitGroup) {
	log.Printf("Starting station")
	wg.Add(1)
	go s.bus.Run(ctx, wg)
}

func (s *Station) Phase() types.Phase {
	return s.phase.Get()
}
