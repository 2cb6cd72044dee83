package utils

import "testing"

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Lake   View  ", "Lake View"},
		{"No. of\n\tCovered Parking", "No. of Covered Parking"},
		{"", ""},
		{" Bengaluru ", "Bengaluru"},
	}
	for _, tt := range tests {
		if got := NormaliseText(tt.in); got != tt.want {
			t.Errorf("NormaliseText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
