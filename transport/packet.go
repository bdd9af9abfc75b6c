package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opd-ai/steamsync/limits"
	"github.com/opd-ai/steamsync/steam"
)

// RequestType identifies a request the poller service answers.
type RequestType byte

const (
	RequestAuth RequestType = iota + 1
	RequestResume
	RequestRoster
	RequestSummaries
	RequestPoll
	RequestSend
	RequestLogoff
)

var requestNames = map[RequestType]string{
	RequestAuth:      "auth",
	RequestResume:    "resume",
	RequestRoster:    "roster",
	RequestSummaries: "summaries",
	RequestPoll:      "poll",
	RequestSend:      "send",
	RequestLogoff:    "logoff",
}

// String returns the subject suffix of the request.
func (t RequestType) String() string {
	if name, ok := requestNames[t]; ok {
		return name
	}
	return "unknown"
}

// Subject builds the request subject: {prefix}.{type}
func (t RequestType) Subject(prefix string) string {
	return prefix + "." + t.String()
}

// Reply error codes.
const (
	CodeSessionExpired = "session_expired"
	CodeChallenge      = "challenge"
	CodeError          = "error"
)

var (
	// ErrRemote wraps a failure reported by the poller service.
	ErrRemote = errors.New("remote error")
	// ErrUnavailable wraps a request that never reached a poller.
	ErrUnavailable = errors.New("poller unavailable")
	// ErrMalformedReply is returned when a reply cannot be decoded.
	ErrMalformedReply = errors.New("malformed reply")
)

// Request is the envelope of every request. The session fields identify the
// logged-on session once authentication or resume succeeded.
type Request struct {
	Account string          `json:"account"`
	Token   string          `json:"token,omitempty"`
	SteamID string          `json:"steamid,omitempty"`
	UMQID   string          `json:"umqid,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewRequest wraps data into an envelope.
func NewRequest(account string, data any) (*Request, error) {
	req := &Request{Account: account}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		req.Data = raw
	}
	return req, nil
}

// Serialize converts the request to its wire form.
func (r *Request) Serialize() ([]byte, error) {
	return json.Marshal(r)
}

// ReplyError is the error member of a reply.
type ReplyError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Field        string `json:"field,omitempty"`
	URL          string `json:"url,omitempty"`
	EmailSteamID string `json:"emailsteamid,omitempty"`
	CaptchaGID   string `json:"captchagid,omitempty"`
}

// Err converts the wire error into the error the session understands.
func (e *ReplyError) Err() error {
	switch e.Code {
	case CodeSessionExpired:
		return steam.ErrSessionExpired
	case CodeChallenge:
		return &steam.ChallengeError{
			Field:        steam.ChallengeField(e.Field),
			Message:      e.Message,
			URL:          e.URL,
			EmailSteamID: e.EmailSteamID,
			CaptchaGID:   e.CaptchaGID,
		}
	default:
		msg := e.Message
		if msg == "" {
			msg = e.Code
		}
		return fmt.Errorf("%w: %s", ErrRemote, msg)
	}
}

// Reply is the envelope of every reply.
type Reply struct {
	Error *ReplyError     `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ParseReply decodes a reply, returning the remote error if one is set.
// When out is non-nil the data member is decoded into it.
func ParseReply(data []byte, out any) error {
	if err := limits.ValidateProcessingBuffer(data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if reply.Error != nil {
		return reply.Error.Err()
	}
	if out == nil || len(reply.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}
