package types

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/tassalor1/vtol/internal/flightmode"
)

// Bus message types
const (
	MessagePhaseChanged = "phase-changed"
	MessageVehicleState = "vehicle-state"
)

// Bus endpoints
const (
	Vehicle = "vehicle"
	Station = "station"
)

// Header is the MAVLink frame header a sender stamps on outbound frames.
type Header struct {
	SystemID    uint8
	ComponentID uint8
	Sequence    uint8
}

// Identity is the system and component id a sender stamps on its frames.
type Identity struct {
	SystemID    uint8 `yaml:"system_id"`
	ComponentID uint8 `yaml:"component_id"`
}

func (id Identity) Header(sequence uint8) Header {
	return Header{SystemID: id.SystemID, ComponentID: id.ComponentID, Sequence: sequence}
}

// Sequence is a per-sender frame counter. Each sender owns its own.
type Sequence uint8

// Next returns the current value and advances, wrapping at 256.
func (s *Sequence) Next() uint8 {
	v := uint8(*s)
	*s++
	return v
}

// Heartbeat is a decoded inbound HEARTBEAT.
type Heartbeat struct {
	Type         common.MAV_TYPE
	Autopilot    common.MAV_AUTOPILOT
	BaseMode     common.MAV_MODE_FLAG
	CustomMode   uint32
	SystemStatus common.MAV_STATE
}

func HeartbeatFromMessage(m *common.MessageHeartbeat) Heartbeat {
	return Heartbeat{
		Type:         m.Type,
		Autopilot:    m.Autopilot,
		BaseMode:     m.BaseMode,
		CustomMode:   m.CustomMode,
		SystemStatus: m.SystemStatus,
	}
}

func (hb Heartbeat) Armed() bool {
	return hb.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0
}

func (hb Heartbeat) MainMode() uint8 {
	return flightmode.MainMode(hb.CustomMode)
}

func (hb Heartbeat) SubMode() uint8 {
	return flightmode.SubMode(hb.CustomMode)
}

// FromStation reports whether the beacon was sent by a ground control
// station, including our own reflection.
func (hb Heartbeat) FromStation() bool {
	return hb.Type == common.MAV_TYPE_GCS
}

// VehicleState is the part of a vehicle heartbeat worth reporting.
type VehicleState struct {
	Type         common.MAV_TYPE  `json:"type"`
	Armed        bool             `json:"armed"`
	MainMode     uint8            `json:"main_mode"`
	SubMode      uint8            `json:"sub_mode"`
	FlightMode   string           `json:"flight_mode"`
	SystemStatus common.MAV_STATE `json:"system_status"`
}

func (hb Heartbeat) State() VehicleState {
	mode := "unknown"
	if m, ok := flightmode.Recognize(hb.CustomMode); ok {
		mode = m.String()
	}
	return VehicleState{
		Type:         hb.Type,
		Armed:        hb.Armed(),
		MainMode:     hb.MainMode(),
		SubMode:      hb.SubMode(),
		FlightMode:   mode,
		SystemStatus: hb.SystemStatus,
	}
}

type PhaseChanged struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}
