package heartbeat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/types"
)

// DefaultPeriod is the station beacon cadence (10 Hz).
const DefaultPeriod = 100 * time.Millisecond

// Beacon is the transmit task advertising this process as a ground station.
type Beacon struct {
	link   link.Link
	id     types.Identity
	period time.Duration
	seq    types.Sequence
}

func NewBeacon(l link.Link, id types.Identity, period time.Duration) *Beacon {
	return &Beacon{link: l, id: id, period: period}
}

func (b *Beacon) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.runTransmitter(ctx)
	}()
}

func (b *Beacon) Receive(message types.Message) {
}

// runTransmitter sends one beacon per tick. time.Ticker drops ticks the loop
// was too slow to take, so a stall never turns into a burst.
func (b *Beacon) runTransmitter(ctx context.Context) {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Beacon shutting down")
			return
		case <-ticker.C:
			// best effort, the next tick goes out with a fresh sequence
			_ = b.link.Send(b.id.Header(b.seq.Next()), StationHeartbeat())
		}
	}
}

// StationHeartbeat is the constant beacon payload of a ground station.
func StationHeartbeat() *common.MessageHeartbeat {
	return &common.MessageHeartbeat{
		Type:           common.MAV_TYPE_GCS,
		Autopilot:      common.MAV_AUTOPILOT_INVALID,
		BaseMode:       0,
		CustomMode:     0,
		SystemStatus:   common.MAV_STATE_ACTIVE,
		MavlinkVersion: 3,
	}
}
