// Package tokenizer provides subword tokenization for the text-encoder
// model. The implementation uses the SentencePiece model shipped inside the
// text-encoder bundle, so the IDs match what the encoder was trained with.
package tokenizer

// Tokenizer encodes text into subword token IDs.
type Tokenizer interface {
	// Encode tokenizes text and returns token IDs.
	Encode(text string) ([]int64, error)
}
