package link

import (
	"context"
	"log"
	"sync"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/pkg/errors"

	"github.com/tassalor1/vtol/internal/types"
)

const (
	DefaultURL = "udpin:0.0.0.0:14551"
	// SITLURL is the port the PX4 SITL offboard examples talk to.
	SITLURL = "udpin:0.0.0.0:14540"
)

var (
	ErrBind   = errors.New("unable to open link")
	ErrClosed = errors.New("link closed")
)

// Frame is one received MAVLink frame.
type Frame struct {
	Header  types.Header
	Message message.Message
}

// Link is a full duplex framed transport. Recv has a single consumer;
// Send may be called from several goroutines.
type Link interface {
	Recv(ctx context.Context) (Frame, error)
	Send(h types.Header, msg message.Message) error
	Close() error
}

// UDPLink is a Link on top of a gomavlib node. The receive half is the
// node's event stream; the send half is guarded by txMu.
type UDPLink struct {
	node *gomavlib.Node

	txMu sync.Mutex
}

// Open binds the endpoint described by url. The node's own heartbeat is
// disabled, the station beacon is sent explicitly.
func Open(url string) (*UDPLink, error) {
	endpoint, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:        []gomavlib.EndpointConf{endpoint},
		Dialect:          common.Dialect,
		OutVersion:       gomavlib.V2,
		OutSystemID:      1,
		HeartbeatDisable: true,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrBind, "%s: %v", url, err)
	}

	return &UDPLink{node: node}, nil
}

func (l *UDPLink) Recv(ctx context.Context) (Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case evt, ok := <-l.node.Events():
			if !ok {
				return Frame{}, ErrClosed
			}
			switch e := evt.(type) {
			case *gomavlib.EventFrame:
				return Frame{
					Header: types.Header{
						SystemID:    e.SystemID(),
						ComponentID: e.ComponentID(),
						Sequence:    e.Frame.GetSequenceNumber(),
					},
					Message: e.Message(),
				}, nil
			case *gomavlib.EventParseError:
				return Frame{}, errors.WithMessage(e.Error, "unable to parse frame")
			case *gomavlib.EventChannelOpen:
				log.Printf("Link: channel open: %v", e.Channel)
			case *gomavlib.EventChannelClose:
				log.Printf("Link: channel closed: %v", e.Channel)
			}
		}
	}
}

// Send writes msg with the caller's header to every peer seen so far.
func (l *UDPLink) Send(h types.Header, msg message.Message) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()

	fr := &frame.V2Frame{
		SequenceNumber: h.Sequence,
		SystemID:       h.SystemID,
		ComponentID:    h.ComponentID,
		Message:        msg,
	}
	// WriteFrameAll sends frames as they are; encode and checksum first
	if err := l.node.FixFrame(fr); err != nil {
		return errors.WithMessagef(err, "unable to encode %T", msg)
	}
	return l.node.WriteFrameAll(fr)
}

func (l *UDPLink) Close() error {
	l.node.Close()
	return nil
}
