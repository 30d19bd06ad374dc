package htmlutil

import "testing"

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "turbid", "turbid"},
		{"less-than kept", "turbid <5 NTU", "turbid <5 NTU"},
		{"bold tag stripped", "<b>turbid</b>", "turbid"},
		{"entity decoded", "sediment &amp; algae", "sediment & algae"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToText(tt.in); got != tt.want {
				t.Errorf("ToText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
