package normalization

import "testing"

func TestParseInputString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Hello World  ", "hello world"},
		{"MIXED Case", "mixed case"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := ParseInputString(tc.in); got != tc.want {
			t.Errorf("ParseInputString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitFullName(t *testing.T) {
	cases := []struct {
		in        string
		wantFirst string
		wantLast  string
	}{
		{"Nora Tester", "Nora", "Tester"},
		{"Ana Maria da Silva", "Ana", "Maria da Silva"},
		{"Prince", "Prince", ""},
		{"  spaced   out  ", "spaced", "out"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitFullName(tc.in)
		if first != tc.wantFirst || last != tc.wantLast {
			t.Errorf("SplitFullName(%q) = (%q, %q), want (%q, %q)", tc.in, first, last, tc.wantFirst, tc.wantLast)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Calories:   250\n\nProtein: 12g", "Calories: 250 Protein: 12g"},
		{"a\tb c", "a b c"},
		{"", ""},
		{"  one  ", "one"},
	}
	for _, tc := range cases {
		if got := CollapseWhitespace(tc.in); got != tc.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
