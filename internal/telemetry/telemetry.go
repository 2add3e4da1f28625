package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	uuid "github.com/google/uuid"

	"github.com/tassalor1/vtol/internal/types"
)

const (
	qos    = 1
	retain = false

	DefaultPeriod = 100 * time.Millisecond
)

// Publisher is the part of mqtt.Client the uplink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type snapshot struct {
	Timestamp int64
	MessageID string

	PhaseUpdated bool
	Phase        types.Phase

	StateUpdated bool
	State        types.VehicleState
}

type telemetry struct {
	client   Publisher
	deviceID string
	period   time.Duration

	mutex   sync.Mutex
	sent    bool
	current snapshot
}

// New returns a bus handler that mirrors phase and vehicle state to
// /devices/<deviceID>/events/telemetry.
func New(client Publisher, deviceID string, period time.Duration) types.MessageHandler {
	if period == 0 {
		period = DefaultPeriod
	}
	return &telemetry{client: client, deviceID: deviceID, period: period, sent: true}
}

func Topic(deviceID string) string {
	return fmt.Sprintf("/devices/%s/%s", deviceID, "events/telemetry")
}

func (t *telemetry) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.startSendingTelemetry(ctx)
	}()
}

func (t *telemetry) Receive(message types.Message) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	switch m := message.Message.(type) {
	case types.PhaseChanged:
		t.current.Phase = m.To
		t.current.PhaseUpdated = true
		t.sent = false
	case types.VehicleState:
		t.current.State = m
		t.current.StateUpdated = true
		t.sent = false
	}
}

// loop to send telemetry, at most one message per period
func (t *telemetry) startSendingTelemetry(ctx context.Context) {
	topic := Topic(t.deviceID)
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Telemetry shutting down")
			return
		case <-ticker.C:
			b, ok := t.next()
			if !ok {
				// there's no new data to send
				continue
			}
			tok := t.client.Publish(topic, qos, retain, b)
			go func() {
				if tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
					log.Printf("Telemetry: publish failed: %v", tok.Error())
				}
			}()
		}
	}
}

func (t *telemetry) next() ([]byte, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.sent {
		return nil, false
	}
	t.current.Timestamp = time.Now().UnixNano() / 1000
	t.current.MessageID = uuid.New().String()
	b, err := json.Marshal(t.current)
	if err != nil {
		log.Printf("Telemetry: marshal failed: %v", err)
		return nil, false
	}
	t.sent = true
	t.current.PhaseUpdated = false
	t.current.StateUpdated = false
	return b, true
}
