package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tassalor1/vtol/internal/types"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mutex sync.Mutex
	msgs  []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) published() []published {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	result := make([]published, len(c.msgs))
	copy(result, c.msgs)
	return result
}

func TestTopic(t *testing.T) {
	if got := Topic("vtol-1"); got != "/devices/vtol-1/events/telemetry" {
		t.Errorf("Topic = %q", got)
	}
}

func TestPublishesOnlyUpdates(t *testing.T) {
	client := &fakeClient{}
	h := New(client, "vtol-1", 2*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	h.Run(ctx, &wg, func(types.Message) {})

	time.Sleep(20 * time.Millisecond)
	if n := len(client.published()); n != 0 {
		t.Fatalf("%d publishes without updates", n)
	}

	h.Receive(types.CreateMessage(types.MessagePhaseChanged, types.Vehicle, types.Station,
		types.PhaseChanged{From: types.PhaseArmed, To: types.PhaseOffboard}))
	h.Receive(types.CreateMessage("unrelated", types.Vehicle, types.Station, 42))

	deadline := time.Now().Add(2 * time.Second)
	for len(client.published()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()

	msgs := client.published()
	if len(msgs) != 1 {
		t.Fatalf("%d publishes, want 1", len(msgs))
	}
	if msgs[0].topic != "/devices/vtol-1/events/telemetry" {
		t.Errorf("topic = %q", msgs[0].topic)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(msgs[0].payload, &body); err != nil {
		t.Fatal(err)
	}
	if body["Phase"] != "Guided (Offboard)" || body["PhaseUpdated"] != true {
		t.Errorf("payload = %s", msgs[0].payload)
	}
	if body["StateUpdated"] != false || body["MessageID"] == "" {
		t.Errorf("payload = %s", msgs[0].payload)
	}
}
