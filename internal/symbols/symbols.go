// Package symbols provides the fixed-vocabulary character encoder that
// prepares text for the acoustic model. The vocabulary and its ordering
// match the checkpoint the acoustic model was trained against, so neither
// may change without retraining.
package symbols

// Sentinel symbols. The padding sentinel doubles as the fallback for
// characters outside the vocabulary.
const (
	PadSymbol = "pad"
	EOSSymbol = "eos"
)

const (
	special     = "-"
	punctuation = "!'(),.? "
	letters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// PadID is the ID of the padding sentinel and of every out-of-vocabulary
// character.
const PadID int64 = 0

// Encoder maps characters to IDs in a fixed, closed vocabulary.
// The zero value is not usable; construct with NewEncoder.
// An Encoder is immutable and safe for concurrent use.
type Encoder struct {
	symbols  []string
	idBySym  map[string]int64
	eosIndex int64
}

// NewEncoder builds the vocabulary as the concatenation, in fixed order, of
// the padding sentinel, the special characters, punctuation and space, the
// Latin letters A-Z and a-z, and the end-of-sequence sentinel. IDs are
// 0-based positions in that concatenation.
func NewEncoder() *Encoder {
	syms := make([]string, 0, 2+len(special)+len(punctuation)+len(letters))
	syms = append(syms, PadSymbol)
	for _, r := range special {
		syms = append(syms, string(r))
	}
	for _, r := range punctuation {
		syms = append(syms, string(r))
	}
	for _, r := range letters {
		syms = append(syms, string(r))
	}
	syms = append(syms, EOSSymbol)

	idBySym := make(map[string]int64, len(syms))
	for i, s := range syms {
		idBySym[s] = int64(i)
	}

	return &Encoder{
		symbols:  syms,
		idBySym:  idBySym,
		eosIndex: int64(len(syms) - 1),
	}
}

// Encode converts text to a same-length sequence of vocabulary IDs, in input
// order. Characters outside the vocabulary map to PadID. Encode never fails;
// it is a pure function of the input and the fixed vocabulary.
func (e *Encoder) Encode(text string) []int64 {
	ids := make([]int64, 0, len(text))
	for _, r := range text {
		id, ok := e.idBySym[string(r)]
		if !ok {
			id = PadID
		}
		ids = append(ids, id)
	}
	return ids
}

// VocabSize returns the number of symbols in the vocabulary.
func (e *Encoder) VocabSize() int {
	return len(e.symbols)
}

// EOSID returns the ID of the end-of-sequence sentinel. The acoustic model
// checkpoint reserves it; Encode never emits it.
func (e *Encoder) EOSID() int64 {
	return e.eosIndex
}

// Symbol returns the vocabulary symbol at the given ID, or the padding
// sentinel when the ID is out of range.
func (e *Encoder) Symbol(id int64) string {
	if id < 0 || id >= int64(len(e.symbols)) {
		return PadSymbol
	}
	return e.symbols[id]
}

// Frame truncates or right-pads ids with PadID so the result has exactly n
// elements. This is the caller-side fixed-length framing applied before the
// sequence is handed to the acoustic model; it is not part of encoding.
func Frame(ids []int64, n int) []int64 {
	if n < 0 {
		n = 0
	}
	out := make([]int64, n)
	copy(out, ids)
	return out
}
