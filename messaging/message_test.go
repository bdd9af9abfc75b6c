package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/steamsync/limits"
	"github.com/opd-ai/steamsync/steam"
)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

const buddy steam.ID = "76561198000000000"

func TestManager_Prepare(t *testing.T) {
	mm := NewManager(false, nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mm.SetTimeProvider(fixedTime{now})

	msg, err := mm.Prepare(buddy, "hello")
	require.NoError(t, err)

	assert.Equal(t, uint32(1), msg.ID)
	assert.Equal(t, buddy, msg.To)
	assert.Equal(t, steam.MessageText, msg.Kind)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, now, msg.Timestamp)
	assert.Equal(t, MessageStatePending, msg.State)

	second, err := mm.Prepare(buddy, "again")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), second.ID)
}

func TestManager_PrepareValidates(t *testing.T) {
	mm := NewManager(false, nil)

	_, err := mm.Prepare(buddy, "")
	assert.ErrorIs(t, err, limits.ErrMessageEmpty)

	_, err = mm.Prepare(buddy, strings.Repeat("a", limits.MaxChatMessage+1))
	assert.ErrorIs(t, err, limits.ErrMessageTooLarge)

	assert.Empty(t, mm.Pending())
}

func TestManager_Emote(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		msg, err := NewManager(false, nil).Prepare(buddy, "/me waves")
		require.NoError(t, err)
		assert.Equal(t, steam.MessageText, msg.Kind)
		assert.Equal(t, "/me waves", msg.Text)
	})

	t.Run("enabled", func(t *testing.T) {
		msg, err := NewManager(true, nil).Prepare(buddy, "/me waves")
		require.NoError(t, err)
		assert.Equal(t, steam.MessageEmote, msg.Kind)
		assert.Equal(t, "waves", msg.Text)
	})

	t.Run("bare prefix is empty", func(t *testing.T) {
		_, err := NewManager(true, nil).Prepare(buddy, "/me ")
		assert.ErrorIs(t, err, limits.ErrMessageEmpty)
	})
}

func TestManager_PrepareTyping(t *testing.T) {
	msg := NewManager(false, nil).PrepareTyping(buddy)

	assert.Equal(t, steam.MessageTyping, msg.Kind)
	assert.Empty(t, msg.Text)
}

func TestManager_Complete(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		err   error
		state MessageState
	}{
		{"sent", nil, MessageStateSent},
		{"failed", boom, MessageStateFailed},
		{"cancelled", context.Canceled, MessageStateCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := NewManager(false, nil)
			msg, err := mm.Prepare(buddy, "hi")
			require.NoError(t, err)
			ctx := mm.Begin(context.Background(), msg)
			assert.Equal(t, MessageStateSending, msg.State)

			done, err := mm.Complete(msg.ID, tt.err)
			require.NoError(t, err)

			assert.Same(t, msg, done)
			assert.Equal(t, tt.state, done.State)
			assert.Equal(t, tt.err, done.Err)
			assert.Error(t, ctx.Err(), "completion releases the send context")
			assert.Empty(t, mm.Pending())
		})
	}
}

func TestManager_CompleteUnknown(t *testing.T) {
	_, err := NewManager(false, nil).Complete(99, nil)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestManager_Requeue(t *testing.T) {
	mm := NewManager(false, nil)
	msg, err := mm.Prepare(buddy, "hi")
	require.NoError(t, err)
	ctx := mm.Begin(context.Background(), msg)

	require.NoError(t, mm.Requeue(msg.ID))

	assert.Equal(t, MessageStatePending, msg.State)
	assert.NoError(t, msg.Err)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, []*Message{msg}, mm.Pending(), "requeued messages stay tracked")

	mm.Begin(context.Background(), msg)
	done, err := mm.Complete(msg.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, MessageStateSent, done.State)

	assert.ErrorIs(t, mm.Requeue(msg.ID), ErrUnknownMessage)
}

func TestManager_CancelAll(t *testing.T) {
	mm := NewManager(false, nil)
	a, _ := mm.Prepare(buddy, "a")
	b := mm.PrepareTyping(buddy)
	ctxA := mm.Begin(context.Background(), a)

	require.Len(t, mm.Pending(), 2)
	assert.Equal(t, []*Message{a, b}, mm.Pending())

	assert.Equal(t, 2, mm.CancelAll())

	assert.ErrorIs(t, ctxA.Err(), context.Canceled)
	assert.Equal(t, MessageStateCancelled, a.State)
	assert.Equal(t, MessageStateCancelled, b.State)
	assert.Empty(t, mm.Pending())
	assert.Equal(t, 0, mm.CancelAll())

	_, err := mm.Complete(a.ID, context.Canceled)
	assert.ErrorIs(t, err, ErrUnknownMessage, "late completions are dropped")
}

func TestFormatIncoming(t *testing.T) {
	assert.Equal(t, "hello", FormatIncoming(steam.EventChatText, "hello"))
	assert.Equal(t, "/me waves", FormatIncoming(steam.EventChatEmote, "waves"))
}

func TestMessageState_String(t *testing.T) {
	assert.Equal(t, "pending", MessageStatePending.String())
	assert.Equal(t, "cancelled", MessageStateCancelled.String())
	assert.Equal(t, "unknown", MessageState(42).String())
}
