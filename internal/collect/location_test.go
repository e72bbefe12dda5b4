package collect

import "testing"

func TestIsUSLocation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		location string
		want     bool
	}{
		{"San Francisco, CA", true},
		{"Austin, TX", true},
		{"New York, United States", true},
		{"Remote - US", true},
		{"Remote (USA)", true},
		{"Seattle, Washington", true},
		{"District of Columbia", true},
		{"London, UK", false},
		{"Berlin, Germany", false},
		{"Toronto, Canada", false},
		{"Remote", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := IsUSLocation(tc.location); got != tc.want {
			t.Errorf("IsUSLocation(%q) = %v, want %v", tc.location, got, tc.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{"  New York  ", "New York"},
		{"one\n\ttwo   three", "one two three"},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
