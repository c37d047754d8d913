package core

import "fmt"

// BackendError is the uniform failure signal for anything that goes wrong
// talking to a chat provider: transport, auth, or a provider-side error
// envelope. It is surfaced to the user as the assistant's reply, never as
// a process failure.
type BackendError struct {
	Provider string
	Message  string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// DocumentParseError reports malformed input during ingestion. It aborts
// the whole batch.
type DocumentParseError struct {
	Name string
	Err  error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Name, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// RetrievalError reports an unreachable or failing chunk index.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// TranscriptionError reports an audio decode or speech recognition failure.
// No partial transcript is ever returned alongside it.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
