// Package common contains shared constants and sentinel errors used across
// jobtracker components.
package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "jt_session"

// CSRFCookieName is the secondary cookie carrying a CSRF token for clients
// that echo it back in CSRFHeaderName.
const CSRFCookieName = "jt_csrf"

// CSRFHeaderName is the request header checked for a CSRF token.
const CSRFHeaderName = "X-CSRF-Token"

// CSRFFieldName is the form (or JSON body) field checked for a CSRF token.
const CSRFFieldName = "_csrf"
