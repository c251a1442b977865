package app

import "testing"

func TestTranslateCommand(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"stream on", "ton"},
		{"stream off", "toff"},
		{"psl 101700", "inhg 101700"},
		{"retx 41", "re_tx 41"},

		// Raw protocol lines pass through
		{"ton", "ton"},
		{"toff", "toff"},
		{"tone", "tone"},
		{"reset", "reset"},
		{"inhg 101325", "inhg 101325"},
		{"re_tx 7", "re_tx 7"},

		// Incomplete aliases are not mangled
		{"stream", "stream"},
		{"psl", "psl"},
		{"retx", "retx"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := translateCommand(tt.line); got != tt.want {
				t.Errorf("translateCommand(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
