package services

import "errors"

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidGoogleToken   = errors.New("invalid google token")
	ErrAccountNotFound      = errors.New("account not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrPhotoNotFound        = errors.New("photo not found")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrAlreadyFollowing     = errors.New("already following this account")
	ErrNotFollowing         = errors.New("not following this account")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// ValidationError reports rejected input. Details is exposed to the client as-is.
type ValidationError struct {
	Message string
	Details interface{}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// fieldErrors collects per-field problems before any write happens.
type fieldErrors map[string]string

func (f fieldErrors) add(field, problem string) {
	if _, exists := f[field]; !exists {
		f[field] = problem
	}
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: message, Details: map[string]string(f)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
