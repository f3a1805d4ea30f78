package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  The Hobbit  ", want: "The Hobbit"},
		{name: "multiple spaces between words", input: "The    Hobbit", want: "The Hobbit"},
		{name: "tabs and newlines", input: "The\t\nHobbit", want: "The Hobbit"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve special characters", input: " Café & Spa™ ", want: "Café & Spa™"},
		{name: "non latin", input: " Война  и мир ", want: "Война и мир"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := TrimAndNormalize(TrimAndNormalize(tt.input)); again != tt.want {
				t.Errorf("TrimAndNormalize is not idempotent for %q: %q", tt.input, again)
			}
		})
	}
}

func TestJoinTitle(t *testing.T) {
	tests := []struct {
		title, subtitle, want string
	}{
		{"The Hobbit", "or There and Back Again", "The Hobbit or There and Back Again"},
		{"The Hobbit", "", "The Hobbit"},
		{"", "Subtitle only", "Subtitle only"},
		{"  Padded ", "  ", "Padded"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := JoinTitle(tt.title, tt.subtitle); got != tt.want {
			t.Errorf("JoinTitle(%q, %q) = %q, want %q", tt.title, tt.subtitle, got, tt.want)
		}
	}
}

func TestSanitizeSearchTerm(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Centre  Ville ", "centre ville"},
		{"BC-001", "bc-001"},
		{" Café ", "cafe"},
		{"", ""},
		{"\t", ""},
	}

	for _, tt := range tests {
		if got := SanitizeSearchTerm(tt.input); got != tt.want {
			t.Errorf("SanitizeSearchTerm(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" CPL ", "CPL"},
		{"cpl", "cpl"},
		{"C\x00PL\n", "CPL"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeCode(tt.input); got != tt.want {
			t.Errorf("SanitizeCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMatchesTerm(t *testing.T) {
	tests := []struct {
		text, term string
		want       bool
	}{
		{"Centerville", "", true},
		{"Centerville", "center", true},
		{"Centerville", "midway", false},
		{"BC-001", "bc-0", true},
		{"Bibliothèque Midi", "bibliotheque", true},
	}

	for _, tt := range tests {
		if got := MatchesTerm(tt.text, tt.term); got != tt.want {
			t.Errorf("MatchesTerm(%q, %q) = %v, want %v", tt.text, tt.term, got, tt.want)
		}
	}
}
