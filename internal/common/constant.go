// Package common contains shared constants and sentinel errors used across
// TaskVault components.
package common

// SessionCookieName is the cookie carrying the signed session credential.
// The cookie is HttpOnly, so page script can never read it.
const SessionCookieName = "taskvault_session"

// CsrfHeaderName is the request header that must echo the anti-forgery token
// returned in the response body when the session was issued.
const CsrfHeaderName = "X-CSRF-Token"
