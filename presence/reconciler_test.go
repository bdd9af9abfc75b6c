package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/steamsync/friend"
	"github.com/opd-ai/steamsync/notify"
	"github.com/opd-ai/steamsync/steam"
)

const gordon steam.ID = "76561198000000000"

func summary(state steam.PersonaState, game, server *string) steam.Summary {
	return steam.Summary{
		ID:       gordon,
		Nick:     "gordon",
		FullName: "Gordon Freeman",
		State:    state,
		Game:     game,
		Server:   server,
	}
}

// known returns a record whose names already match summary(), so tests only
// see presence notifications.
func known() *friend.Record {
	rec := friend.New(gordon)
	rec.SetNames("gordon", "Gordon Freeman")
	return rec
}

func presenceOnly(notes []notify.Notification) []notify.PresenceChange {
	var out []notify.PresenceChange
	for _, n := range notes {
		if p, ok := n.(notify.PresenceChange); ok {
			out = append(out, p)
		}
	}
	return out
}

func TestReconcile_FirstSummaryRenamesAndConfirms(t *testing.T) {
	r := NewReconciler(nil)
	rec := friend.New(gordon)
	rec.Provisional = true

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, nil, nil), Settings{})

	assert.Equal(t, []notify.Notification{
		notify.BuddyRenamed{ID: gordon, Nick: "gordon", FullName: "Gordon Freeman"},
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online"},
	}, notes)
	assert.False(t, rec.Provisional)
	assert.Equal(t, steam.PersonaOnline, rec.State)
}

func TestReconcile_GameScenario(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	cfg := Settings{DisplayMode: steam.DisplayHalfop}

	first := r.Reconcile(rec, summary(steam.PersonaOnline, nil, nil), cfg)
	assert.Equal(t, []notify.Notification{
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online"},
	}, first)

	second := r.Reconcile(rec, summary(steam.PersonaOnline,
		steam.StringPtr("Half-Life 2"), steam.StringPtr("1.2.3.4:27015")), cfg)

	assert.Equal(t, []notify.Notification{
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online", Activity: "Half-Life 2 (1.2.3.4:27015)"},
		notify.ActivityModeChange{ID: gordon, Mode: steam.DisplayHalfop},
	}, second)
	require.NotNil(t, rec.Game)
	require.NotNil(t, rec.Server)
	assert.Equal(t, "Half-Life 2", *rec.Game)
	assert.Equal(t, "1.2.3.4:27015", *rec.Server)
}

func TestReconcile_UnchangedGameIsQuiet(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	playing := summary(steam.PersonaOnline, steam.StringPtr("Portal"), nil)

	r.Reconcile(rec, playing, Settings{})
	again := r.Reconcile(rec, playing, Settings{})

	assert.Empty(t, again)
}

func TestReconcile_StatusFlickerWhilePlayingIsSuppressed(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("Portal"), nil), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaAway, steam.StringPtr("Portal"), nil), Settings{})

	assert.Empty(t, notes)
	assert.Equal(t, steam.PersonaAway, rec.State)
}

func TestReconcile_StatusFlickerWithoutGame(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, nil, nil), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaAway, nil, nil), Settings{})

	assert.Equal(t, []notify.Notification{
		notify.PresenceChange{ID: gordon, Online: true, Status: "Away"},
	}, notes)
}

func TestReconcile_OfflineAlwaysAnnouncedAndClears(t *testing.T) {
	sequences := map[string][]steam.Summary{
		"from game": {
			summary(steam.PersonaOnline, steam.StringPtr("Portal"), steam.StringPtr("10.0.0.1:27015")),
			summary(steam.PersonaOffline, steam.StringPtr("Portal"), steam.StringPtr("10.0.0.1:27015")),
		},
		"repeated offline": {
			summary(steam.PersonaOffline, nil, nil),
			summary(steam.PersonaOffline, nil, nil),
		},
		"busy then offline": {
			summary(steam.PersonaBusy, nil, nil),
			summary(steam.PersonaLookingToPlay, steam.StringPtr("Dota 2"), nil),
			summary(steam.PersonaOffline, nil, nil),
		},
	}

	for name, seq := range sequences {
		t.Run(name, func(t *testing.T) {
			r := NewReconciler(nil)
			rec := known()

			var last []notify.Notification
			for _, s := range seq {
				last = r.Reconcile(rec, s, Settings{AnnounceGameActivity: true})
			}

			require.NotEmpty(t, last)
			assert.Equal(t, notify.PresenceChange{ID: gordon, Online: false, Status: "Offline"}, last[len(last)-1])
			assert.Nil(t, rec.Game)
			assert.Nil(t, rec.Server)
			assert.Equal(t, steam.PersonaOffline, rec.State)
		})
	}
}

func TestReconcile_ServerOnlyChange(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("TF2"), steam.StringPtr("1.1.1.1:27015")), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("TF2"), steam.StringPtr("2.2.2.2:27015")),
		Settings{AnnounceGameActivity: true})

	assert.Empty(t, presenceOnly(notes), "server changes ride along with game changes only")
	assert.Equal(t, []notify.Notification{
		notify.ChannelMessage{ID: gordon, Text: "/me is now playing: TF2 (2.2.2.2:27015)"},
	}, notes)
	assert.Equal(t, "2.2.2.2:27015", *rec.Server)
}

func TestReconcile_AnnounceGameActivity(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, nil, nil), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("Portal"), nil),
		Settings{AnnounceGameActivity: true, DisplayMode: steam.DisplayVoice})

	assert.Equal(t, []notify.Notification{
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online", Activity: "Portal"},
		notify.ActivityModeChange{ID: gordon, Mode: steam.DisplayVoice},
		notify.ChannelMessage{ID: gordon, Text: "/me is now playing: Portal"},
	}, notes)
}

func TestReconcile_GameSwitchDoesNotReapplyMode(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("Portal"), nil), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("Portal 2"), nil), Settings{})

	assert.Equal(t, []notify.Notification{
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online", Activity: "Portal 2"},
	}, notes)
}

func TestReconcile_StopPlaying(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("Portal"), nil), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, nil, nil), Settings{AnnounceGameActivity: true})

	assert.Equal(t, []notify.Notification{
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online"},
	}, notes)
	assert.Nil(t, rec.Game)
}

func TestReconcile_EmptyGameIsNotAbsent(t *testing.T) {
	r := NewReconciler(nil)
	rec := known()
	r.Reconcile(rec, summary(steam.PersonaOnline, nil, nil), Settings{})

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr(""), nil), Settings{})

	require.Len(t, presenceOnly(notes), 1)
	require.NotNil(t, rec.Game)
	assert.Equal(t, "", *rec.Game)
}

func TestReconcile_PendingInviteReceived(t *testing.T) {
	store := friend.NewStore()
	h := friend.NewRelationshipHandler(store)
	r := NewReconciler(nil)

	h.Apply(gordon, steam.RelationshipRequestReceived)
	rec, _ := store.Get(gordon)

	notes := r.Reconcile(rec, summary(steam.PersonaOnline, steam.StringPtr("Portal"), nil), Settings{})

	assert.Empty(t, presenceOnly(notes))
	assert.Equal(t, []notify.Notification{
		notify.BuddyRenamed{ID: gordon, Nick: "gordon", FullName: "Gordon Freeman"},
		notify.RelationshipNotice{ID: gordon, Nick: "gordon", Kind: steam.NoticeInviteReceived},
	}, notes)
	assert.False(t, rec.Pending)
}

func TestReconcile_PendingInviteSent(t *testing.T) {
	rec := known()
	rec.SetRelationship(steam.RelationshipRequestSent, true)

	notes := NewReconciler(nil).Reconcile(rec, summary(steam.PersonaOnline, nil, nil), Settings{})

	assert.Equal(t, []notify.Notification{
		notify.RelationshipNotice{ID: gordon, Nick: "gordon", Kind: steam.NoticeInviteSent},
	}, notes)
}

func TestReconcile_RequestThenAddedRoundTrip(t *testing.T) {
	store := friend.NewStore()
	h := friend.NewRelationshipHandler(store)
	r := NewReconciler(nil)
	online := summary(steam.PersonaOnline, nil, nil)

	h.Apply(gordon, steam.RelationshipRequestReceived)
	rec, _ := store.Get(gordon)
	r.Reconcile(rec, online, Settings{})

	tr := h.Apply(gordon, steam.RelationshipAdded)
	require.True(t, tr.Fetch)
	notes := r.Reconcile(rec, online, Settings{})

	assert.Equal(t, []notify.Notification{
		notify.RelationshipNotice{ID: gordon, Nick: "gordon", Kind: steam.NoticeAdded},
		notify.PresenceChange{ID: gordon, Online: true, Status: "Online"},
	}, notes)
	assert.False(t, rec.Pending)
	assert.Equal(t, steam.RelationshipAdded, rec.Relationship)
}

func TestRescan(t *testing.T) {
	store := friend.NewStore()
	r := NewReconciler(nil)

	playing, _ := store.GetOrCreate("a")
	r.Reconcile(playing, steam.Summary{ID: "a", State: steam.PersonaOnline, Game: steam.StringPtr("Portal")}, Settings{})
	idle, _ := store.GetOrCreate("b")
	r.Reconcile(idle, steam.Summary{ID: "b", State: steam.PersonaOnline}, Settings{})
	store.GetOrCreate("c")

	notes := r.Rescan(store, Settings{DisplayMode: steam.DisplayOp})

	assert.Equal(t, []notify.Notification{
		notify.ActivityModeChange{ID: "a", Mode: steam.DisplayOp},
	}, notes)
}

func TestActivityLabel(t *testing.T) {
	assert.Equal(t, "", ActivityLabel(nil, nil))
	assert.Equal(t, "", ActivityLabel(nil, steam.StringPtr("1.2.3.4")))
	assert.Equal(t, "Portal", ActivityLabel(steam.StringPtr("Portal"), nil))
	assert.Equal(t, "Portal (1.2.3.4)", ActivityLabel(steam.StringPtr("Portal"), steam.StringPtr("1.2.3.4")))
}
