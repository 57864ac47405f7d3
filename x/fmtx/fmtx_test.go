package fmtx

import "testing"

func TestSprintfVerbs(t *testing.T) {
	type C struct {
		fmt  string
		args []any
		want string
	}
	for _, c := range []C{
		{"hello %s", []any{"world"}, "hello world"},
		{"[HFP] conn_state=%d", []any{3}, "[HFP] conn_state=3"},
		{"volume=%d", []any{int(-1)}, "volume=-1"},
		{"literal %%", nil, "literal %"},
		{"v=%v", []any{123}, "v=123"},
		{"hook=%s state=%s", []any{"ON_HOOK", "IDLE"}, "hook=ON_HOOK state=IDLE"},
	} {
		got := Sprintf(c.fmt, c.args...)
		if got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}
