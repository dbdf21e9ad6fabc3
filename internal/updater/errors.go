package updater

import "fmt"

// Error codes for self-update operations.
const (
	ErrCodeDisabled     = "DISABLED"
	ErrCodeCheckFailed  = "CHECK_FAILED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeNoUpdate     = "NO_UPDATE"
	ErrCodeBackupFailed = "BACKUP_FAILED"
	ErrCodeApplyFailed  = "APPLY_FAILED"
)

// Error is a coded self-update error.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
