package common

import "time"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "sv_session"

// SessionCookieMaxAge is the transport-level lifetime of the session cookie.
const SessionCookieMaxAge = 7 * 24 * time.Hour

// OtpCodeLength is the number of digits in a one-time code.
const OtpCodeLength = 6
