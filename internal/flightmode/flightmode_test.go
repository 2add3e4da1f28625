package flightmode

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		mode FlightMode
		want Params
	}{
		{Manual, Params{BaseMode: 217, MainMode: 1}},
		{Offboard, Params{BaseMode: 209, MainMode: 6}},
		{Hold, Params{BaseMode: 217, MainMode: 4, SubMode: 3}},
		{Mission, Params{BaseMode: 157, MainMode: 4, SubMode: 4}},
		{RTL, Params{BaseMode: 157, MainMode: 4, SubMode: 5}},
		{Acro, Params{BaseMode: 209, MainMode: 5}},
	}
	for _, tt := range tests {
		if got := Lookup(tt.mode); got != tt.want {
			t.Errorf("Lookup(%v) = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}

func TestModeFields(t *testing.T) {
	custom := uint32(6<<16 | 2<<24 | 0x55)
	if got := MainMode(custom); got != 6 {
		t.Errorf("MainMode = %d, want 6", got)
	}
	if got := SubMode(custom); got != 2 {
		t.Errorf("SubMode = %d, want 2", got)
	}
	if got := Lookup(Offboard).CustomMode(); got != 6<<16 {
		t.Errorf("Offboard custom mode = %#x, want %#x", got, 6<<16)
	}
}

func TestRecognize(t *testing.T) {
	for _, m := range []FlightMode{Manual, Offboard, Hold, Mission, RTL, Acro} {
		got, ok := Recognize(Lookup(m).CustomMode())
		if !ok || got != m {
			t.Errorf("Recognize(%v) = %v, %v", m, got, ok)
		}
	}
	if _, ok := Recognize(7 << 16); ok {
		t.Error("main mode 7 should not be recognised")
	}
	if _, ok := Recognize(4 << 16); ok {
		t.Error("auto main mode without sub mode should not be recognised")
	}
}
