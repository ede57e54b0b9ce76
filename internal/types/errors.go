package types

import (
	"errors"
	"fmt"
)

// ErrInput marks a dataset that is structurally unusable for its role,
// e.g. a risk dataset in which no feature carries a risk attribute.
// Malformed values never produce it; they degrade to zero or the default style.
var ErrInput = errors.New("invalid input dataset")

// InputError reports a required attribute that is absent from every feature.
type InputError struct {
	Dataset   string
	Attribute string
}

func (e *InputError) Error() string {
	name := e.Dataset
	if name == "" {
		name = "dataset"
	}
	return fmt.Sprintf("%s: required attribute %q is missing from every feature", name, e.Attribute)
}

// Unwrap lets errors.Is(err, ErrInput) match.
func (e *InputError) Unwrap() error {
	return ErrInput
}
