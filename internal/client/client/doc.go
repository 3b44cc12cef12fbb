// Package client talks to the Silent Voice REST API and bootstraps the
// local SQLite database.
//
// HTTPClient carries the sv_session cookie value itself; callers persist it
// between runs. Transport failures surface as ErrUnavailable, HTTP error
// statuses as the matching common sentinel (ErrorUnauthorized,
// ErrorNotFound, ErrorValidation, ErrRateLimited).
package client
