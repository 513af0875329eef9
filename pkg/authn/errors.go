// pkg/authn/errors.go
package authn

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes authentication failures with stable values.
type ErrorCode string

const (
	ErrCodeMalformedToken   ErrorCode = "malformed_token"
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"
	ErrCodeUnknownKey       ErrorCode = "unknown_key"
	ErrCodeExpiredToken     ErrorCode = "token_expired"
	ErrCodeIssuerMismatch   ErrorCode = "issuer_mismatch"
	ErrCodeAudienceUnknown  ErrorCode = "audience_unknown"
	ErrCodeKeyFetch         ErrorCode = "key_fetch_failed"
	ErrCodeSigningKey       ErrorCode = "signing_key_unavailable"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeMalformedToken:   "Malformed token",
	ErrCodeInvalidSignature: "Invalid signature",
	ErrCodeUnknownKey:       "No matching verification key",
	ErrCodeExpiredToken:     "Token expired",
	ErrCodeIssuerMismatch:   "Issuer mismatch",
	ErrCodeAudienceUnknown:  "No organization registered for token audience",
	ErrCodeKeyFetch:         "Key set fetch failed",
	ErrCodeSigningKey:       "Signing key unavailable",
}

// Error wraps an authentication failure with a stable code.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	msg, ok := errorMessages[e.Code]
	if !ok {
		msg = string(e.Code)
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, err error) error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the error code, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
