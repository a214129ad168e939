package symbols

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Vocabulary construction
// ---------------------------------------------------------------------------

func TestNewEncoder_VocabularyLayout(t *testing.T) {
	e := NewEncoder()

	// pad + "-" + "!'(),.? " + 52 letters + eos
	if got, want := e.VocabSize(), 1+1+8+52+1; got != want {
		t.Fatalf("VocabSize() = %d, want %d", got, want)
	}

	if e.Symbol(0) != PadSymbol {
		t.Errorf("Symbol(0) = %q, want %q", e.Symbol(0), PadSymbol)
	}
	if e.Symbol(1) != "-" {
		t.Errorf("Symbol(1) = %q, want %q", e.Symbol(1), "-")
	}
	if e.Symbol(e.EOSID()) != EOSSymbol {
		t.Errorf("Symbol(EOSID) = %q, want %q", e.Symbol(e.EOSID()), EOSSymbol)
	}
	if e.EOSID() != int64(e.VocabSize()-1) {
		t.Errorf("EOSID() = %d, want %d", e.EOSID(), e.VocabSize()-1)
	}
}

func TestNewEncoder_FixedPositions(t *testing.T) {
	e := NewEncoder()

	// Spot-check the ordering contract: punctuation occupies 2-9, letters
	// start at 10 with A, lowercase starts at 36 with a.
	cases := []struct {
		text string
		want int64
	}{
		{"!", 2},
		{"'", 3},
		{"(", 4},
		{")", 5},
		{",", 6},
		{".", 7},
		{"?", 8},
		{" ", 9},
		{"A", 10},
		{"Z", 35},
		{"a", 36},
		{"z", 61},
	}
	for _, tc := range cases {
		got := e.Encode(tc.text)
		if len(got) != 1 || got[0] != tc.want {
			t.Errorf("Encode(%q) = %v, want [%d]", tc.text, got, tc.want)
		}
	}
}

func TestNewEncoder_Deterministic(t *testing.T) {
	a := NewEncoder()
	b := NewEncoder()

	for id := int64(0); id < int64(a.VocabSize()); id++ {
		if a.Symbol(id) != b.Symbol(id) {
			t.Fatalf("Symbol(%d) differs across constructions: %q vs %q", id, a.Symbol(id), b.Symbol(id))
		}
	}
}

// ---------------------------------------------------------------------------
// Encode
// ---------------------------------------------------------------------------

func TestEncode(t *testing.T) {
	e := NewEncoder()

	cases := []struct {
		name string
		text string
		want []int64
	}{
		{"empty", "", []int64{}},
		{"single letter", "A", []int64{10}},
		{"oov digit maps to pad", "Z1", []int64{35, 0}},
		{"mixed with space", "Hi there", []int64{17, 44, 9, 55, 43, 40, 53, 40}},
		{"oov unicode maps to pad", "äh", []int64{0, 43}},
		{"punctuation", "a-b!", []int64{36, 1, 37, 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Encode(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Encode(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestEncode_AllVocabularyRoundTrips(t *testing.T) {
	e := NewEncoder()

	// Every single-character symbol must encode to its own position.
	for id := int64(1); id < e.EOSID(); id++ {
		sym := e.Symbol(id)
		got := e.Encode(sym)
		if len(got) != 1 || got[0] != id {
			t.Errorf("Encode(%q) = %v, want [%d]", sym, got, id)
		}
	}
}

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

func TestFrame(t *testing.T) {
	cases := []struct {
		name string
		in   []int64
		n    int
		want []int64
	}{
		{"truncates past limit", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, 9, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"pads short input with zeros", []int64{5, 6, 7, 8, 9}, 9, []int64{5, 6, 7, 8, 9, 0, 0, 0, 0}},
		{"exact length unchanged", []int64{1, 2, 3}, 3, []int64{1, 2, 3}},
		{"empty input all padding", nil, 4, []int64{0, 0, 0, 0}},
		{"zero length", []int64{1, 2}, 0, []int64{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Frame(tc.in, tc.n)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Frame(%v, %d) = %v, want %v", tc.in, tc.n, got, tc.want)
			}
		})
	}
}

func TestFrame_DoesNotAliasInput(t *testing.T) {
	in := []int64{1, 2, 3}
	out := Frame(in, 3)
	out[0] = 99
	if in[0] != 1 {
		t.Fatal("Frame mutated its input slice")
	}
}
