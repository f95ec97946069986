package errors

import "errors"

// Sentinel errors for the auth layer. Token and code failures are kept
// deliberately coarse: a caller (and therefore an attacker watching
// responses) cannot tell a wrong verifier from an expired row from an
// unknown selector.
var (
	// Authentication failures.
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrInvalidCode          = errors.New("second factor verification failed")
	ErrPasswordNotVerified  = errors.New("password verification is required first")

	// Account state. These are surfaced with distinct messages and so leak
	// account existence; inherited behaviour, kept as-is.
	ErrAccountBlocked = errors.New("account is blocked")
	ErrAccountPending = errors.New("account has not been verified")

	// Tokens and cookies.
	ErrTokenInvalidOrExpired = errors.New("token is invalid or has expired")
	ErrInvalidCookieFormat   = errors.New("malformed trust cookie")
	ErrNoMFAKey              = errors.New("no authenticator key has been configured")

	// Internal failures; logged in detail, surfaced generically.
	ErrDecryptFailed = errors.New("failed to decrypt stored secret")
	ErrStorage       = errors.New("storage operation failed")

	// Lookup failures.
	ErrNotFound        = errors.New("resource not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// IsAuthenticationFailure reports whether err represents a rejected
// credential or second-factor attempt.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrPasswordNotVerified)
}

// IsAccountStateError reports whether err is a blocked/pending gate.
func IsAccountStateError(err error) bool {
	return errors.Is(err, ErrAccountBlocked) ||
		errors.Is(err, ErrAccountPending)
}

// IsNotFound reports whether err is any of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsInternal reports whether err must be hidden behind a generic message.
func IsInternal(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrDecryptFailed)
}
