package lottietex

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindFetchFailure ErrorKind = iota + 1
	KindMalformedAnimationData
	KindUseAfterDispose
	KindInvalidConfig
	KindEngineFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindFetchFailure:
		return "fetch failure"
	case KindMalformedAnimationData:
		return "malformed animation data"
	case KindUseAfterDispose:
		return "use after dispose"
	case KindInvalidConfig:
		return "invalid config"
	case KindEngineFailure:
		return "engine failure"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

var (
	ErrFetchFailure           = &Error{Kind: KindFetchFailure}
	ErrMalformedAnimationData = &Error{Kind: KindMalformedAnimationData}
	ErrUseAfterDispose        = &Error{Kind: KindUseAfterDispose}
	ErrInvalidConfig          = &Error{Kind: KindInvalidConfig}
	ErrEngineFailure          = &Error{Kind: KindEngineFailure}
)

// Error is the error type delivered by the loader and the texture controls.
// errors.Is matches any *Error of the same Kind.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	msg := "lottietex: " + e.Kind.String()
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
