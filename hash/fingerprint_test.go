package hash

import "testing"

func TestBoardDeterministic(t *testing.T) {
	cells := []uint8{0, 1, 1, 0, 1, 0}
	first := Board(3, 2, cells)
	for i := 0; i < 5; i++ {
		if next := Board(3, 2, cells); next != first {
			t.Fatalf("fingerprint changed between iterations: %d -> %d", first, next)
		}
	}
}

func TestBoardSensitiveToCellsAndShape(t *testing.T) {
	cells := []uint8{0, 1, 1, 0, 1, 0}
	base := Board(3, 2, cells)

	flipped := append([]uint8(nil), cells...)
	flipped[0] = 1
	if Board(3, 2, flipped) == base {
		t.Fatalf("expected different fingerprint after flipping a cell")
	}
	if Board(2, 3, cells) == base {
		t.Fatalf("expected different fingerprint for a transposed shape")
	}
}

func TestPeriod(t *testing.T) {
	history := []uint64{11, 22, 33}
	if p, ok := Period(22, history); !ok || p != 2 {
		t.Fatalf("expected period 2, got %d ok=%v", p, ok)
	}
	if p, ok := Period(11, history); !ok || p != 1 {
		t.Fatalf("expected still life period 1, got %d ok=%v", p, ok)
	}
	if _, ok := Period(44, history); ok {
		t.Fatalf("expected no period for unseen fingerprint")
	}
	if _, ok := Period(44, nil); ok {
		t.Fatalf("expected no period without history")
	}
}
