package repositories

import "context"

// AudioConfig describes the audio a recognizer session receives.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToText abstracts the speech recognizer feeding the pipeline.
type SpeechToText interface {
	// InitTranscribeStreaming opens a streaming recognition session.
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// SpeechToTextStreaming is one active recognition session. Recognized text
// fragments arrive on Results as the recognizer produces them; they are the
// chunks the sentence accumulator buffers.
type SpeechToTextStreaming interface {
	// Stream feeds one audio chunk into the session.
	Stream(data []byte) error
	// Results returns the channel of recognized text fragments. Closed when
	// the session ends.
	Results() <-chan string
	// End closes the session and returns the full final transcription.
	End() (string, error)
}
