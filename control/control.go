// Package control provides the framework control-flow signals that weft
// passes through untouched: not-found and redirect.
//
// Signals are ordinary errors. A handler or middleware may return one, or
// raise one with [Throw]. Either way the engine treats the signal as a
// defect: it is never offered to a failure mapper, never swallowed by an
// optional middleware, and it comes back from the outer invocation as the
// very same value that was raised.
//
//	if user == nil {
//	    return Profile{}, control.NotFound()
//	}
//	if !user.Verified {
//	    control.Throw(control.Redirect("/verify"))
//	}
package control

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind distinguishes the signal types.
type Kind uint8

const (
	// KindNotFound asks the host framework to render its not-found page.
	KindNotFound Kind = iota + 1
	// KindRedirect asks the host framework to redirect.
	KindRedirect
)

// String returns the signal kind name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// RedirectMode selects how the browser history is updated on redirect.
type RedirectMode string

const (
	// ModeReplace replaces the current history entry.
	ModeReplace RedirectMode = "replace"
	// ModePush pushes a new history entry.
	ModePush RedirectMode = "push"
)

// Signal is a control-flow error. Use the constructors; the zero value is
// not a valid signal.
type Signal struct {
	kind   Kind
	url    string
	status int
	mode   RedirectMode
}

// NotFound returns a new not-found signal.
func NotFound() error {
	return &Signal{kind: KindNotFound, status: http.StatusNotFound}
}

// Redirect returns a temporary (307) redirect signal to url.
func Redirect(url string) error {
	return &Signal{kind: KindRedirect, url: url, status: http.StatusTemporaryRedirect, mode: ModeReplace}
}

// RedirectWithMode returns a temporary redirect signal using the given
// history mode.
func RedirectWithMode(url string, mode RedirectMode) error {
	return &Signal{kind: KindRedirect, url: url, status: http.StatusTemporaryRedirect, mode: mode}
}

// PermanentRedirect returns a permanent (308) redirect signal to url.
func PermanentRedirect(url string) error {
	return &Signal{kind: KindRedirect, url: url, status: http.StatusPermanentRedirect, mode: ModeReplace}
}

// Throw panics with err. It exists so that deeply nested code can abort
// the whole invocation with a signal without threading the error back up.
func Throw(err error) {
	panic(err)
}

// Kind returns the signal kind.
func (s *Signal) Kind() Kind { return s.kind }

// URL returns the redirect target. Empty for not-found.
func (s *Signal) URL() string { return s.url }

// Status returns the HTTP status code carried by the signal.
func (s *Signal) Status() int { return s.status }

// Mode returns the redirect history mode. Empty for not-found.
func (s *Signal) Mode() RedirectMode { return s.mode }

// Digest returns the stable string form of the signal, suitable for
// serialising across a server/client boundary.
func (s *Signal) Digest() string {
	if s.kind == KindRedirect {
		return fmt.Sprintf("%s%s;%s;%d", redirectPrefix, s.mode, s.url, s.status)
	}
	return notFoundDigest
}

// Error implements error.
func (s *Signal) Error() string { return s.Digest() }

// As extracts the first Signal in err's chain.
func As(err error) (*Signal, bool) {
	var s *Signal
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// IsNotFound reports whether err carries a not-found signal.
func IsNotFound(err error) bool {
	s, ok := As(err)
	return ok && s.kind == KindNotFound
}

// IsRedirect reports whether err carries a redirect signal.
func IsRedirect(err error) bool {
	s, ok := As(err)
	return ok && s.kind == KindRedirect
}
