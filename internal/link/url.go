package link

import (
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/pkg/errors"
)

// ParseURL turns a connection string such as "udpin:0.0.0.0:14551" into a
// gomavlib endpoint. Supported schemes: udpin, udpout, udpbcast, tcpin,
// tcpout and serial (serial:/dev/ttyACM0:57600).
func ParseURL(url string) (gomavlib.EndpointConf, error) {
	scheme, address, found := strings.Cut(url, ":")
	if !found || address == "" {
		return nil, errors.Errorf("invalid link url %q", url)
	}

	switch scheme {
	case "udpin":
		return gomavlib.EndpointUDPServer{Address: address}, nil
	case "udpout":
		return gomavlib.EndpointUDPClient{Address: address}, nil
	case "udpbcast":
		return gomavlib.EndpointUDPBroadcast{BroadcastAddress: address}, nil
	case "tcpin":
		return gomavlib.EndpointTCPServer{Address: address}, nil
	case "tcpout":
		return gomavlib.EndpointTCPClient{Address: address}, nil
	case "serial":
		i := strings.LastIndex(address, ":")
		if i <= 0 {
			return nil, errors.Errorf("invalid serial url %q: missing baud rate", url)
		}
		baud, err := strconv.Atoi(address[i+1:])
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid serial url %q", url)
		}
		return gomavlib.EndpointSerial{Device: address[:i], Baud: baud}, nil
	default:
		return nil, errors.Errorf("unsupported link scheme %q", scheme)
	}
}
