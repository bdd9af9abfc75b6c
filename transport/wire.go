package transport

import (
	"github.com/opd-ai/steamsync/steam"
)

type authRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	EmailAuth    string `json:"emailauth,omitempty"`
	CaptchaText  string `json:"captcha_text,omitempty"`
	EmailSteamID string `json:"emailsteamid,omitempty"`
	CaptchaGID   string `json:"captchagid,omitempty"`
}

type authReply struct {
	Token   string `json:"token"`
	SteamID string `json:"steamid"`
}

type resumeRequest struct {
	Token string `json:"token"`
}

type resumeReply struct {
	SteamID string `json:"steamid"`
	UMQID   string `json:"umqid"`
}

type wireFriend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
}

type rosterReply struct {
	Friends []wireFriend `json:"friends"`
}

type summariesRequest struct {
	SteamIDs []string `json:"steamids"`
}

type wireSummary struct {
	SteamID      string  `json:"steamid"`
	PersonaName  string  `json:"personaname"`
	RealName     string  `json:"realname"`
	PersonaState int     `json:"personastate"`
	GameInfo     *string `json:"gameextrainfo"`
	GameServerIP *string `json:"gameserverip"`
	ProfileURL   string  `json:"profileurl"`
}

type summariesReply struct {
	Players []wireSummary `json:"players"`
}

type wireEvent struct {
	Type         string `json:"type"`
	SteamIDFrom  string `json:"steamid_from"`
	Text         string `json:"text,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

type pollReply struct {
	Messages []wireEvent `json:"messages"`
}

type sendRequest struct {
	SteamID string `json:"steamid_dst"`
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
}

func (w wireSummary) toSummary() steam.Summary {
	return steam.Summary{
		ID:         steam.ID(w.SteamID),
		Nick:       w.PersonaName,
		FullName:   w.RealName,
		State:      steam.PersonaStateFromCode(w.PersonaState),
		Game:       w.GameInfo,
		Server:     w.GameServerIP,
		ProfileURL: w.ProfileURL,
	}
}

func (w wireEvent) toEvent() steam.Event {
	ev := steam.Event{
		Kind: steam.ParseEventKind(w.Type),
		From: steam.ID(w.SteamIDFrom),
		Text: w.Text,
	}
	if ev.Kind == steam.EventRelationshipChanged {
		ev.Relationship = steam.ParseRelationship(w.Relationship)
	}
	return ev
}
