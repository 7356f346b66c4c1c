package dialer

import "testing"

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"5551234567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"+442071234567", "+442071234567"},
		{"(555) 123-4567", "+15551234567"},
		{"1-555-123-4567", "+15551234567"},
		{"442071234567", "+442071234567"},
		{"123", "+1123"},
		{"911", "+1911"},
	}

	for _, tc := range cases {
		got := NormalizeNumber(tc.input)
		if got != tc.want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeNumberKeepsExistingPlusPrefix(t *testing.T) {
	// A "+"-prefixed number is trusted as-is, separators included.
	input := "+1 (555) 123-4567"
	if got := NormalizeNumber(input); got != input {
		t.Fatalf("expected %q unchanged, got %q", input, got)
	}
}
