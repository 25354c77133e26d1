package domain

import (
	"fmt"
	"testing"

	"github.com/cwrk-planet/room-chat/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestErrorClasses(t *testing.T) {
	assert.Equal(t, errs.KindNotFound, errs.KindOf(fmt.Errorf("join: %w", ErrRoomNotFound)))
	assert.Equal(t, errs.KindForbidden, errs.KindOf(ErrForbidden))
	assert.Equal(t, errs.KindMissingIdentity, errs.KindOf(ErrMissingIdentity))
	assert.Equal(t, errs.KindValidation, errs.KindOf(fmt.Errorf("%w: too large", ErrValidation)))

	// текст доменный, класс от pkg/errs
	assert.Equal(t, "only the creator can delete this room", ErrForbidden.Error())
	assert.Equal(t, "room not found", ErrRoomNotFound.Error())
	assert.ErrorIs(t, ErrValidation, errs.ErrInvalidInput)
	assert.NotErrorIs(t, errs.ErrInvalidInput, ErrValidation)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "пр", Truncate("привет", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeIdentity("  A@X.com "))
	assert.Equal(t, "", NormalizeIdentity("   "))
}

func TestMessageSnapshot(t *testing.T) {
	m := &Message{ID: "1", Status: StatusSent, SeenBy: map[string]struct{}{"b@y.com": {}}}
	snap := m.Snapshot()
	assert.Nil(t, snap.SeenBy)
	assert.True(t, m.SeenByViewer("b@y.com"))

	m.Status = StatusSeen
	assert.Equal(t, StatusSent, snap.Status)
}
