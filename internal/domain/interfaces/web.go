package interfaces

import (
	"context"
	"time"
)

// TrustCookieJar is the explicit cookie capability handed to the credential
// verifier by the request handler, replacing any ambient access to request
// globals. Get returns the raw trust cookie value if the request carried
// one; Set and Clear queue the matching response headers.
type TrustCookieJar interface {
	Get() (value string, ok bool)
	Set(value string, expiresAt time.Time)
	Clear()
}

// SessionTerminator force-ends the calling request's session. A failed
// second-factor attempt invalidates the session outright rather than
// leaving the password-verified state alive.
type SessionTerminator interface {
	Terminate(ctx context.Context) error
}
