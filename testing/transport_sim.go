package testing

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/steamsync/steam"
)

// Call names recorded by SimulatedTransport.
const (
	CallAuthenticate   = "Authenticate"
	CallResumeSession  = "ResumeSession"
	CallFetchRoster    = "FetchRoster"
	CallFetchSummaries = "FetchSummaries"
	CallPoll           = "Poll"
	CallSendMessage    = "SendMessage"
	CallLogoff         = "Logoff"
)

// DefaultSteamID is the account identity the simulation logs on as.
const DefaultSteamID steam.ID = "76561198000000001"

// SentMessage records one SendMessage call.
type SentMessage struct {
	To   steam.ID
	Text string
	Kind steam.MessageKind
}

type pollResult struct {
	events []steam.Event
	err    error
}

// SimulatedTransport implements interfaces.ITransport in memory. Behavior is
// scripted through the Set* methods; polls block until events or errors are
// pushed. Every call is recorded for verification.
type SimulatedTransport struct {
	mu sync.Mutex

	authFunc    func(user, pass string, answers steam.ChallengeAnswers) (steam.Credentials, error)
	resumeFunc  func(token string) (steam.Logon, error)
	roster      []steam.ID
	rosterErr   error
	summaries   map[steam.ID]steam.Summary
	summaryErr  error
	summaryGate chan struct{}
	sendFunc    func(to steam.ID, text string, kind steam.MessageKind) error
	logoffErr   error

	polls          chan pollResult
	activePolls    int
	maxPolls       int
	calls          map[string]int
	answers        []steam.ChallengeAnswers
	tokens         []string
	summaryBatches [][]steam.ID
	sent           []SentMessage
}

// NewSimulatedTransport creates a transport that accepts any credentials and
// returns an empty roster.
func NewSimulatedTransport() *SimulatedTransport {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedTransport",
	}).Info("Creating simulated transport for testing")

	return &SimulatedTransport{
		summaries: make(map[steam.ID]steam.Summary),
		polls:     make(chan pollResult, 64),
		calls:     make(map[string]int),
	}
}

// SetAuthenticate scripts Authenticate.
func (s *SimulatedTransport) SetAuthenticate(fn func(user, pass string, answers steam.ChallengeAnswers) (steam.Credentials, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFunc = fn
}

// SetResume scripts ResumeSession.
func (s *SimulatedTransport) SetResume(fn func(token string) (steam.Logon, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumeFunc = fn
}

// SetRoster sets the FetchRoster result.
func (s *SimulatedTransport) SetRoster(ids []steam.ID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = ids
	s.rosterErr = err
}

// SetSummary stores the summary returned for sum.ID.
func (s *SimulatedTransport) SetSummary(sum steam.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[sum.ID] = sum
}

// SetSummariesError makes FetchSummaries fail.
func (s *SimulatedTransport) SetSummariesError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryErr = err
}

// HoldSummaries makes FetchSummaries block until the returned function is
// called.
func (s *SimulatedTransport) HoldSummaries() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.summaryGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// SetSend scripts SendMessage.
func (s *SimulatedTransport) SetSend(fn func(to steam.ID, text string, kind steam.MessageKind) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendFunc = fn
}

// SetLogoffError makes Logoff fail.
func (s *SimulatedTransport) SetLogoffError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoffErr = err
}

// PushEvents completes the next Poll with events.
func (s *SimulatedTransport) PushEvents(events ...steam.Event) {
	s.polls <- pollResult{events: events}
}

// PushPollError completes the next Poll with err.
func (s *SimulatedTransport) PushPollError(err error) {
	s.polls <- pollResult{err: err}
}

func (s *SimulatedTransport) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

// Authenticate implements interfaces.ITransport.
func (s *SimulatedTransport) Authenticate(_ context.Context, user, pass string, answers steam.ChallengeAnswers) (steam.Credentials, error) {
	s.record(CallAuthenticate)

	s.mu.Lock()
	s.answers = append(s.answers, answers)
	fn := s.authFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(user, pass, answers)
	}
	return steam.Credentials{Token: "simulated-token", SteamID: DefaultSteamID}, nil
}

// ResumeSession implements interfaces.ITransport.
func (s *SimulatedTransport) ResumeSession(_ context.Context, token string) (steam.Logon, error) {
	s.record(CallResumeSession)

	s.mu.Lock()
	s.tokens = append(s.tokens, token)
	fn := s.resumeFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(token)
	}
	return steam.Logon{SteamID: DefaultSteamID, UMQID: "1"}, nil
}

// FetchRoster implements interfaces.ITransport.
func (s *SimulatedTransport) FetchRoster(context.Context) ([]steam.ID, error) {
	s.record(CallFetchRoster)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rosterErr != nil {
		return nil, s.rosterErr
	}
	return append([]steam.ID(nil), s.roster...), nil
}

// FetchSummaries implements interfaces.ITransport. Unknown identities are
// omitted.
func (s *SimulatedTransport) FetchSummaries(ctx context.Context, ids []steam.ID) ([]steam.Summary, error) {
	s.record(CallFetchSummaries)

	s.mu.Lock()
	s.summaryBatches = append(s.summaryBatches, append([]steam.ID(nil), ids...))
	gate := s.summaryGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summaryErr != nil {
		return nil, s.summaryErr
	}
	out := make([]steam.Summary, 0, len(ids))
	for _, id := range ids {
		if sum, ok := s.summaries[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

// Poll implements interfaces.ITransport. It blocks until a result is pushed
// or ctx is done.
func (s *SimulatedTransport) Poll(ctx context.Context) ([]steam.Event, error) {
	s.record(CallPoll)

	s.mu.Lock()
	s.activePolls++
	if s.activePolls > s.maxPolls {
		s.maxPolls = s.activePolls
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.activePolls--
		s.mu.Unlock()
	}()

	select {
	case r := <-s.polls:
		return r.events, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendMessage implements interfaces.ITransport.
func (s *SimulatedTransport) SendMessage(_ context.Context, to steam.ID, text string, kind steam.MessageKind) error {
	s.record(CallSendMessage)

	s.mu.Lock()
	s.sent = append(s.sent, SentMessage{To: to, Text: text, Kind: kind})
	fn := s.sendFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(to, text, kind)
	}
	return nil
}

// Logoff implements interfaces.ITransport.
func (s *SimulatedTransport) Logoff(context.Context) error {
	s.record(CallLogoff)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoffErr
}

// Calls returns how many times the named method ran.
func (s *SimulatedTransport) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// WaitCalls waits until the named method ran at least n times.
func (s *SimulatedTransport) WaitCalls(name string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.Calls(name) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// MaxConcurrentPolls returns the largest number of polls that were ever in
// flight at the same time.
func (s *SimulatedTransport) MaxConcurrentPolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxPolls
}

// Answers returns the challenge answers of every Authenticate call.
func (s *SimulatedTransport) Answers() []steam.ChallengeAnswers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]steam.ChallengeAnswers(nil), s.answers...)
}

// Tokens returns the token of every ResumeSession call.
func (s *SimulatedTransport) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

// SummaryRequests returns the identities of every FetchSummaries call.
func (s *SimulatedTransport) SummaryRequests() [][]steam.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]steam.ID(nil), s.summaryBatches...)
}

// Sent returns every SendMessage call.
func (s *SimulatedTransport) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}
