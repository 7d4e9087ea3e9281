package repositories

import "context"

// TextToSpeech abstracts the synthesizer consuming the pipeline's final
// output, one complete sentence at a time.
type TextToSpeech interface {
	// SynthesizeSentence converts one sentence to audio, streamed as chunks.
	SynthesizeSentence(ctx context.Context, sentence string) (<-chan []byte, error)
}
