package config

import "fmt"

// Kind classifies a configuration failure.
type Kind int

const (
	KindMissingFile Kind = iota + 1
	KindParse
	KindMissingField
	KindInvalidValue
)

func (k Kind) String() string {
	switch k {
	case KindMissingFile:
		return "missing file"
	case KindParse:
		return "parse error"
	case KindMissingField:
		return "missing field"
	case KindInvalidValue:
		return "invalid value"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind  Kind
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := "config: " + e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("config %s: %s", e.Path, e.Kind)
	}
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
