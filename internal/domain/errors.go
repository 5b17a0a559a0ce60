package domain

import "errors"

// ErrLoginRequired is returned when an authenticated-only action is
// triggered without a session. The caller is expected to route the user to
// the login flow; no state is mutated and no network call is issued.
var ErrLoginRequired = errors.New("login required")
