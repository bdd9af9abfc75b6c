package testing

import (
	"sync"
	"time"

	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
)

// RecordingHost implements interfaces.IHost by recording every call as the
// matching notify value, in order.
type RecordingHost struct {
	mu    sync.Mutex
	notes []notify.Notification
}

// NewRecordingHost creates an empty recording host.
func NewRecordingHost() *RecordingHost {
	return &RecordingHost{}
}

func (h *RecordingHost) add(n notify.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = append(h.notes, n)
}

// Notifications returns everything recorded so far.
func (h *RecordingHost) Notifications() []notify.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]notify.Notification(nil), h.notes...)
}

// Reset forgets everything recorded so far.
func (h *RecordingHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = nil
}

// Wait polls until cond holds for the recorded notifications.
func (h *RecordingHost) Wait(cond func([]notify.Notification) bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond(h.Notifications()) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Filter returns the recorded notifications of type T.
func Filter[T notify.Notification](h *RecordingHost) []T {
	var out []T
	for _, n := range h.Notifications() {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Count returns how many notifications of type T were recorded.
func Count[T notify.Notification](h *RecordingHost) int {
	return len(Filter[T](h))
}

func (h *RecordingHost) PresenceChanged(id steam.ID, online bool, status, activity string) {
	h.add(notify.PresenceChange{ID: id, Online: online, Status: status, Activity: activity})
}

func (h *RecordingHost) TypingChanged(id steam.ID, typing bool) {
	h.add(notify.TypingChange{ID: id, Typing: typing})
}

func (h *RecordingHost) MessageReceived(id steam.ID, text string) {
	h.add(notify.MessageReceived{ID: id, Text: text})
}

func (h *RecordingHost) RelationshipNotice(id steam.ID, nick string, kind steam.NoticeKind) {
	h.add(notify.RelationshipNotice{ID: id, Nick: nick, Kind: kind})
}

func (h *RecordingHost) ApplyActivityDisplayMode(id steam.ID, mode steam.DisplayMode) {
	h.add(notify.ActivityModeChange{ID: id, Mode: mode})
}

func (h *RecordingHost) ChannelMessage(id steam.ID, text string) {
	h.add(notify.ChannelMessage{ID: id, Text: text})
}

func (h *RecordingHost) BuddyAdded(id steam.ID) {
	h.add(notify.BuddyAdded{ID: id})
}

func (h *RecordingHost) BuddyRemoved(id steam.ID) {
	h.add(notify.BuddyRemoved{ID: id})
}

func (h *RecordingHost) BuddyRenamed(id steam.ID, nick, fullName string) {
	h.add(notify.BuddyRenamed{ID: id, Nick: nick, FullName: fullName})
}

func (h *RecordingHost) LoginComplete() {
	h.add(notify.LoginComplete{})
}

func (h *RecordingHost) FatalError(message string) {
	h.add(notify.FatalError{Message: message})
}

func (h *RecordingHost) InfoLines(id steam.ID, lines []string) {
	h.add(notify.InfoLines{ID: id, Lines: append([]string(nil), lines...)})
}

func (h *RecordingHost) Log(message string) {
	h.add(notify.Log{Message: message})
}
