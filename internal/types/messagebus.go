package types

import (
	"context"
	"log"
	"sync"
)

type PostFn = func(msg Message)

// MessageHandler is a bus participant. Run must not block: it starts the
// handler's goroutines, registering them on wg.
type MessageHandler interface {
	Run(ctx context.Context, wg *sync.WaitGroup, post PostFn)
	Receive(message Message)
}

type MessageBus struct {
	bus       chan Message
	receivers []MessageHandler
}

func NewMessageBus(bus chan Message, receivers ...MessageHandler) *MessageBus {
	return &MessageBus{bus, receivers}
}

// Run starts every receiver and delivers posted messages to all of them
// until ctx is cancelled. Posting never blocks past cancellation.
func (mb *MessageBus) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	busCapacity := cap(mb.bus)
	post := func(msg Message) {
		busLen := len(mb.bus)
		if busLen > busCapacity/2 {
			log.Printf("WARNING: Bus capacity over 50%% [ %d / %d ]", busLen, busCapacity)
		}
		select {
		case mb.bus <- msg:
		case <-ctx.Done():
		}
	}

	for _, x := range mb.receivers {
		x.Run(ctx, wg, post)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-mb.bus:
			for _, x := range mb.receivers {
				x.Receive(msg)
			}
		}
	}
}
