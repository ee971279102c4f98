package api

import (
	"errors"
	"fmt"

	"github.com/okian/pitwall/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnknownRole = errors.New("unknown role")
)

var errNoData = errors.New("body has neither laps nor samples")

func errUnknownType(t model.EventType) error {
	return fmt.Errorf("unknown event_type %q", t)
}

func wrapKind(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
