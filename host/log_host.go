package host

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/steam"
)

// LogHost writes every notification to a logrus entry. It is the host used
// when nothing else consumes notifications, and a useful member of Multi.
type LogHost struct {
	log *logrus.Entry
}

// NewLogHost creates a LogHost. A nil entry logs through the standard logger.
func NewLogHost(entry *logrus.Entry) *LogHost {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogHost{log: entry}
}

func (h *LogHost) PresenceChanged(id steam.ID, online bool, status, activity string) {
	h.log.WithFields(logrus.Fields{
		"steam_id": id,
		"online":   online,
		"status":   status,
		"activity": activity,
	}).Info("Presence changed")
}

func (h *LogHost) TypingChanged(id steam.ID, typing bool) {
	h.log.WithFields(logrus.Fields{
		"steam_id": id,
		"typing":   typing,
	}).Debug("Typing changed")
}

func (h *LogHost) MessageReceived(id steam.ID, text string) {
	h.log.WithFields(logrus.Fields{
		"steam_id": id,
		"length":   len(text),
	}).Info("Message received")
}

func (h *LogHost) RelationshipNotice(id steam.ID, nick string, kind steam.NoticeKind) {
	h.log.WithFields(logrus.Fields{
		"steam_id": id,
		"notice":   kind.String(),
	}).Info(kind.Text(nick))
}

func (h *LogHost) ApplyActivityDisplayMode(id steam.ID, mode steam.DisplayMode) {
	h.log.WithFields(logrus.Fields{
		"steam_id": id,
		"mode":     mode.String(),
	}).Debug("Activity display mode applied")
}

func (h *LogHost) ChannelMessage(id steam.ID, text string) {
	h.log.WithFields(logrus.Fields{
		"steam_id": id,
		"text":     text,
	}).Info("Channel message")
}

func (h *LogHost) BuddyAdded(id steam.ID) {
	h.log.WithField("steam_id", id).Debug("Buddy added")
}

func (h *LogHost) BuddyRemoved(id steam.ID) {
	h.log.WithField("steam_id", id).Info("Buddy removed")
}

func (h *LogHost) BuddyRenamed(id steam.ID, nick, fullName string) {
	h.log.WithFields(logrus.Fields{
		"steam_id":  id,
		"nick":      nick,
		"full_name": fullName,
	}).Debug("Buddy renamed")
}

func (h *LogHost) LoginComplete() {
	h.log.Info("Logged in")
}

func (h *LogHost) FatalError(message string) {
	h.log.WithField("error", message).Error("Session failed")
}

func (h *LogHost) InfoLines(id steam.ID, lines []string) {
	for _, line := range lines {
		h.log.WithField("steam_id", id).Info(line)
	}
}

func (h *LogHost) Log(message string) {
	h.log.Info(message)
}
