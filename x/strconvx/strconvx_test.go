package strconvx

import "testing"

func TestItoaAtoi(t *testing.T) {
	cases := []int{0, 1, -1, 15, 42, -99999}
	for _, v := range cases {
		s := Itoa(v)
		got, err := Atoi(s)
		if err != nil {
			t.Fatalf("Atoi(%q) error: %v", s, err)
		}
		if got != v {
			t.Fatalf("Itoa/Atoi round trip: want %d, got %d", v, got)
		}
	}
}

func TestAtoiErrors(t *testing.T) {
	for _, s := range []string{"", "abc", "7x", "-", "1.5"} {
		if _, err := Atoi(s); err == nil {
			t.Fatalf("Atoi(%q) expected error", s)
		}
	}
}

func TestParseUintHexOctet(t *testing.T) {
	for s, want := range map[string]uint64{"0": 0, "f": 15, "FF": 255, "aB": 0xAB} {
		got, err := ParseUint(s, 16, 8)
		if err != nil || got != want {
			t.Fatalf("ParseUint(%q,16,8) = %d,%v want %d", s, got, err, want)
		}
	}
	for _, s := range []string{"", "GG", "1FF", "-1"} {
		if _, err := ParseUint(s, 16, 8); err == nil {
			t.Fatalf("ParseUint(%q,16,8) expected error", s)
		}
	}
}
