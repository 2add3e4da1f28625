package flightmode

// FlightMode is a symbolic PX4 flight mode.
type FlightMode int

const (
	Manual FlightMode = iota
	Offboard
	Hold
	Mission
	RTL
	Acro
)

// Params carries the autopilot specific encoding of a flight mode.
// MainMode and SubMode are the byte aligned fields of the heartbeat custom
// mode word, BaseMode is what a mode command sends in base_mode.
type Params struct {
	BaseMode uint8
	MainMode uint8
	SubMode  uint8
}

var table = map[FlightMode]Params{
	Manual:   {BaseMode: 217, MainMode: 1},
	Offboard: {BaseMode: 209, MainMode: 6},
	Hold:     {BaseMode: 217, MainMode: 4, SubMode: 3},
	Mission:  {BaseMode: 157, MainMode: 4, SubMode: 4},
	RTL:      {BaseMode: 157, MainMode: 4, SubMode: 5},
	Acro:     {BaseMode: 209, MainMode: 5},
}

// lookup order for Recognize, most specific first
var recognizeOrder = []FlightMode{Offboard, Hold, Mission, RTL, Manual, Acro}

func (m FlightMode) String() string {
	switch m {
	case Manual:
		return "Manual"
	case Offboard:
		return "Offboard"
	case Hold:
		return "Hold"
	case Mission:
		return "Mission"
	case RTL:
		return "RTL"
	case Acro:
		return "Acro"
	default:
		return "Unknown"
	}
}

// Lookup returns the parameters of mode. Unknown modes yield the zero Params.
func Lookup(mode FlightMode) Params {
	return table[mode]
}

// CustomMode composes the heartbeat custom mode word for p.
func (p Params) CustomMode() uint32 {
	return uint32(p.MainMode)<<16 | uint32(p.SubMode)<<24
}

func MainMode(customMode uint32) uint8 {
	return uint8((customMode >> 16) & 0xFF)
}

func SubMode(customMode uint32) uint8 {
	return uint8((customMode >> 24) & 0xFF)
}

// Recognize maps a heartbeat custom mode word back to a flight mode.
// Entries without a sub mode match on the main mode alone.
func Recognize(customMode uint32) (FlightMode, bool) {
	main := MainMode(customMode)
	sub := SubMode(customMode)
	for _, m := range recognizeOrder {
		p := table[m]
		if p.MainMode != main {
			continue
		}
		if p.SubMode == 0 || p.SubMode == sub {
			return m, true
		}
	}
	return 0, false
}
