package domain

import (
	"fmt"

	"github.com/cwrk-planet/room-chat/pkg/errs"
)

// Доменные ошибки сохраняют свой текст, а класс (для HTTP и поля "kind")
// берут у базовых ошибок pkg/errs через Unwrap.
var (
	ErrNotFound        = errs.ErrNotFound
	ErrRoomNotFound    = fmt.Errorf("room %w", ErrNotFound)
	ErrForbidden       = &classified{msg: "only the creator can delete this room", class: errs.ErrForbidden}
	ErrMissingIdentity = &classified{msg: "email required", class: errs.ErrMissingIdentity}
	ErrValidation      = &classified{msg: "validation failed", class: errs.ErrInvalidInput}
)

type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.class }
