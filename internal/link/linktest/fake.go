// Package linktest provides an in-memory link.Link for tests.
package linktest

import (
	"context"
	"sync"

	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/types"
)

// Sent is one frame handed to Send.
type Sent struct {
	Header  types.Header
	Message message.Message
}

type inbound struct {
	frame link.Frame
	err   error
}

// Fake records outbound frames and replays injected inbound ones.
type Fake struct {
	rx chan inbound

	mutex   sync.Mutex
	sent    []Sent
	sendErr error
	closed  bool
}

func NewFake() *Fake {
	return &Fake{rx: make(chan inbound, 64)}
}

// Inject queues a frame for Recv.
func (f *Fake) Inject(h types.Header, msg message.Message) {
	f.rx <- inbound{frame: link.Frame{Header: h, Message: msg}}
}

// InjectError queues a receive error for Recv.
func (f *Fake) InjectError(err error) {
	f.rx <- inbound{err: err}
}

// FailSends makes every following Send return err (nil restores success).
func (f *Fake) FailSends(err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sendErr = err
}

func (f *Fake) Recv(ctx context.Context) (link.Frame, error) {
	select {
	case <-ctx.Done():
		return link.Frame{}, ctx.Err()
	case in := <-f.rx:
		return in.frame, in.err
	}
}

func (f *Fake) Send(h types.Header, msg message.Message) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return link.ErrClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, Sent{Header: h, Message: msg})
	return nil
}

func (f *Fake) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	return nil
}

// Sent returns a copy of the frames sent so far.
func (f *Fake) Sent() []Sent {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	result := make([]Sent, len(f.sent))
	copy(result, f.sent)
	return result
}

// SentWithID returns the sent frames carrying message id.
func (f *Fake) SentWithID(id uint32) []Sent {
	var result []Sent
	for _, s := range f.Sent() {
		if s.Message.GetID() == id {
			result = append(result, s)
		}
	}
	return result
}
