// Package target resolves user-supplied target strings into server endpoints.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Target resolution errors.
var (
	// ErrEmptyTarget indicates the target string was empty or whitespace.
	ErrEmptyTarget = errors.New("target is empty")

	// ErrInvalidCommand indicates the target could not be split into a command line.
	ErrInvalidCommand = errors.New("invalid target command")
)

// Kind discriminates how a target should be reached.
type Kind int

const (
	// KindLocal is a local server process spawned over stdio.
	KindLocal Kind = iota

	// KindRemoteHTTP is a remote server reachable over http(s).
	KindRemoteHTTP

	// KindRemoteWS is a remote server reachable over ws(s).
	KindRemoteWS
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemoteHTTP:
		return "remote-http"
	case KindRemoteWS:
		return "remote-ws"
	default:
		return "unknown"
	}
}

// Spec is a resolved target. It is a value object - immutable after creation.
type Spec struct {
	original string
	kind     Kind
	program  string
	args     []string
	endpoint *url.URL
}

// Parse resolves a raw target string into a Spec.
//
// Strings that parse as URLs with an http(s) or ws(s) scheme become remote
// endpoints. Everything else, including URLs with unrecognized schemes, is
// treated as a local command line and split with shell quoting rules.
func Parse(raw string) (*Spec, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyTarget
	}

	if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return &Spec{original: trimmed, kind: KindRemoteHTTP, endpoint: u}, nil
		case "ws", "wss":
			return &Spec{original: trimmed, kind: KindRemoteWS, endpoint: u}, nil
		}
	}

	words, err := shellquote.Split(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyTarget
	}
	if words[0] == "" {
		return nil, fmt.Errorf("%w: empty program name", ErrInvalidCommand)
	}

	return &Spec{
		original: trimmed,
		kind:     KindLocal,
		program:  words[0],
		args:     words[1:],
	}, nil
}

// String returns the original target string.
func (s *Spec) String() string { return s.original }

// Kind returns how the target should be reached.
func (s *Spec) Kind() Kind { return s.kind }

// IsLocal reports whether the target is a local process.
func (s *Spec) IsLocal() bool { return s.kind == KindLocal }

// Program returns the executable for a local target.
func (s *Spec) Program() string { return s.program }

// Args returns the arguments for a local target.
func (s *Spec) Args() []string {
	out := make([]string, len(s.args))
	copy(out, s.args)
	return out
}

// Endpoint returns the URL for a remote target, or nil for local targets.
func (s *Spec) Endpoint() *url.URL { return s.endpoint }
