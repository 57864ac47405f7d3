// services/hal/internal/halcore/types_test.go

package halcore

import "testing"

func TestParsePull(t *testing.T) {
	cases := map[string]Pull{
		"up":       PullUp,
		" UP ":     PullUp,
		"pulldown": PullDown,
		"":         PullNone,
		"float":    PullNone,
	}
	for in, want := range cases {
		if got := ParsePull(in); got != want {
			t.Fatalf("ParsePull(%q) = %v, want %v", in, got, want)
		}
	}
	if PullUp.String() != "up" || PullNone.String() != "none" {
		t.Fatal("Pull.String mapping incorrect")
	}
}
