package entities

import (
	"errors"
	"fmt"
)

// Failure classes the pipeline distinguishes. All are recoverable locally
// except an unresolved Critical compliance violation in strict mode.
var (
	// ErrTranslationFailure: the translation backend was unavailable or
	// errored. Recoverable by passing the untranslated text onward.
	ErrTranslationFailure = errors.New("translation failure")

	// ErrGrammarCorrectionTimeout: the tier-2 language-model call failed or
	// timed out. Recoverable via the dictionary-only result.
	ErrGrammarCorrectionTimeout = errors.New("grammar correction timeout")

	// ErrPIIDetectionFailure: entity detection itself failed. Recoverable by
	// fully redacting the whole utterance.
	ErrPIIDetectionFailure = errors.New("pii detection failure")

	// ErrComplianceUnresolved: a Critical violation could not be rewritten.
	// Surfaces as a turn failure only in strict mode.
	ErrComplianceUnresolved = errors.New("unresolved critical compliance violation")
)

// SafeFallbackUtterance replaces a response the compliance checker could not
// resolve. It is the only text allowed to leave the pipeline for a sentence
// carrying an unresolved Critical finding, and it makes no claim that could
// itself violate a rule.
const SafeFallbackUtterance = "I am sorry, I cannot help with that right now. Let me connect you to a representative."

// StageError attributes a failure to the named stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the originating stage name.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
