package spoilage

import "errors"

var (
	// ErrUnknownProduct is returned when a product has no registered base profile.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrInvalidInput is returned when a derivation input is outside its
	// accepted range (door flag not 0/1, outside temperature unrealistic).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidReading is returned when a required reading field is missing
	// or not a finite number. The engine state is left untouched so the
	// stream can continue with the next reading.
	ErrInvalidReading = errors.New("invalid reading")
)
