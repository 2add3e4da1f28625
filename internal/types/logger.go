package types

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// busLogger writes every bus message to the process log.
type busLogger struct{}

func NewLogger() MessageHandler {
	return busLogger{}
}

func (busLogger) Run(ctx context.Context, wg *sync.WaitGroup, post PostFn) {
}

func (busLogger) Receive(message Message) {
	switch m := message.Message.(type) {
	case PhaseChanged:
		log.Printf("Phase: %v -> %v", m.From, m.To)
	default:
		b, err := json.Marshal(m)
		if err != nil {
			log.Printf("Message: %s: unable to marshal: %v", message.MessageType, err)
			return
		}
		log.Printf("Message: %s (%s -> %s): %s", message.MessageType, message.From, message.To, string(b))
	}
}
