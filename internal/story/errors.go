package story

import "errors"

// DefaultFailureMessage is shown when a provider failed without saying why.
const DefaultFailureMessage = "story generation failed"

// ErrUnknownModel is wrapped when a model id is not in the catalog.
var ErrUnknownModel = errors.New("unknown story model")

// GenerationError is returned for every failed story request.
type GenerationError struct {
	Provider string
	Model    string
	Message  string // user-facing text
	Err      error  // underlying cause, may be nil
}

func (e *GenerationError) Error() string {
	if e.Message == "" {
		return DefaultFailureMessage
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(provider, model, message string, cause error) *GenerationError {
	if message == "" {
		message = DefaultFailureMessage
	}
	return &GenerationError{
		Provider: provider,
		Model:    model,
		Message:  message,
		Err:      cause,
	}
}

// Message extracts the user-facing text from err.
func Message(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Error()
	}
	if err == nil {
		return ""
	}
	return DefaultFailureMessage
}
