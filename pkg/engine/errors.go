package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPolarity is returned when the polarity is outside {up, down}.
var ErrInvalidPolarity = errors.New("invalid polarity")

// MissingParamsError reports which required event fields were absent. The
// event is rejected without touching history.
type MissingParamsError struct {
	Fields []string
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("missing params: %s", strings.Join(e.Fields, ", "))
}
