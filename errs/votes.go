package errs

import (
	"errors"
	"net/http"
)

// Voting & visitor-action signals
var (
	ErrAlreadyVoted = errors.New("already voted")
	ErrAuthRequired = errors.New("authentication required")
	ErrInvalidStar  = errors.New("star value must be an integer between 1 and 5")
	ErrVoteFailed   = errors.New("vote failed, retry")
	ErrWriteFailed  = errors.New("write failed, retry")
)

func NewAlreadyVotedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrAlreadyVoted,
		Field:      "votes.users",
	}
}

func NewAuthRequiredError(action string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrAuthRequired,
		Details:    "Sign in to " + action,
		Field:      "authorization",
	}
}

func NewInvalidStarError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidStar,
		Field:      "star",
	}
}

// NewVoteFailedError marks a store-level failure while voting. The client may retry as-is.
func NewVoteFailedError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrVoteFailed,
		Cause:      cause,
	}
}

func NewWriteFailedError(entity string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrWriteFailed,
		Details:    "Failed to save " + entity,
		Cause:      cause,
	}
}

func IsAlreadyVoted(err error) bool {
	return errors.Is(err, ErrAlreadyVoted)
}

func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

func IsInvalidStar(err error) bool {
	return errors.Is(err, ErrInvalidStar)
}

// IsRetryable reports whether the caller may re-attempt the same action.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVoteFailed) || errors.Is(err, ErrWriteFailed)
}
