package model

import (
	"errors"
	"fmt"
)

type InputErrorKind string

const (
	ShapeError InputErrorKind = "shape"
	TypeError  InputErrorKind = "type"
)

// InputError is returned when a request does not fit what the pipeline was
// fitted on. Callers should treat it as a client error.
type InputError struct {
	Kind   InputErrorKind
	Column string
	Msg    string
}

func (e *InputError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s error: column %q: %s", e.Kind, e.Column, e.Msg)
}

func shapeErr(column, format string, args ...any) *InputError {
	return &InputError{Kind: ShapeError, Column: column, Msg: fmt.Sprintf(format, args...)}
}

func typeErr(column, format string, args ...any) *InputError {
	return &InputError{Kind: TypeError, Column: column, Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err, or anything it wraps, is an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

var (
	ErrNoArtifact        = errors.New("no model artifact found")
	ErrAmbiguousArtifact = errors.New("pattern matches more than one model artifact")
	ErrUnsupportedFormat = errors.New("unsupported artifact format")
	ErrUnknownClassifier = errors.New("unknown classifier kind")
	ErrCorruptArtifact   = errors.New("corrupt model artifact")
)
