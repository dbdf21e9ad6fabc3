package relay

import "fmt"

// Error codes for relay install operations. Architecture and asset
// failures are fatal and carry the available asset names so the operator
// can diagnose the mismatch.
const (
	ErrCodeUnsupportedArch = "UNSUPPORTED_ARCH"
	ErrCodeNoMatchingAsset = "NO_MATCHING_ASSET"
	ErrCodeReleaseLookup   = "RELEASE_LOOKUP_FAILED"
	ErrCodeDownloadFailed  = "DOWNLOAD_FAILED"
	ErrCodeExtractFailed   = "EXTRACT_FAILED"
)

// Error is a coded relay install error.
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
