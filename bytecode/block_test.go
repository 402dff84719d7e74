package bytecode

import "testing"

func TestLineForIP(t *testing.T) {
	block := &InstructionBlock{
		Lines: []LineEntry{
			{StartIP: 0, Line: 1},
			{StartIP: 5, Line: 2},
			{StartIP: 12, Line: 3},
		},
	}
	cases := []struct {
		ip   int
		want int
	}{
		{0, 1}, {4, 1}, {5, 2}, {11, 2}, {12, 3}, {100, 3},
	}
	for _, c := range cases {
		if got := block.LineForIP(c.ip); got != c.want {
			t.Errorf("LineForIP(%d) = %d, want %d", c.ip, got, c.want)
		}
	}
}

func TestLineForIPNoTable(t *testing.T) {
	block := &InstructionBlock{}
	if got := block.LineForIP(42); got != 0 {
		t.Errorf("LineForIP with no line table = %d, want 0", got)
	}
}
