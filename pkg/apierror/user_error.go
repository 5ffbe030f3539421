package apierror

// UserErrorCode is the fixed code carried by every UserError.
const UserErrorCode = 1436

// UserErrorDomain identifies user-facing validation errors raised on the client.
const UserErrorDomain = "user"

// UserError is a client-side error whose message is meant to be shown to the user as is.
type UserError struct {
	Message string
}

// NewUserError creates a UserError.
func NewUserError(message string) *UserError {
	return &UserError{Message: message}
}

func (e *UserError) Error() string { return e.Message }

// Code returns UserErrorCode.
func (e *UserError) Code() int { return UserErrorCode }

// Domain returns UserErrorDomain.
func (e *UserError) Domain() string { return UserErrorDomain }
