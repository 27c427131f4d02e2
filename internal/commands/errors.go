package commands

import (
	"errors"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
)

// Failure is a command error carrying the message shown to the user
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// HandleError is the process-wide error handler. Cancelled prompts are not
// errors; everything else becomes a Failure with a user-facing message.
func HandleError(log zerolog.Logger, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, prompt.ErrCancelled) {
		log.Debug().Msg("command cancelled by the user")
		return nil
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	log.Error().Err(err).Msg("command failed")
	return &Failure{Message: provider.Describe(err), Err: err}
}
