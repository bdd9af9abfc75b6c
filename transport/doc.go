// Package transport connects a session to the remote service through a
// poller process reachable over NATS.
//
// # Protocol
//
// Every operation is one request/reply exchange on {prefix}.{type}, where
// type is auth, resume, roster, summaries, poll, send or logoff. Requests
// carry a JSON envelope naming the account and the current session:
//
//	{"account":"alice","token":"...","steamid":"...","umqid":"...","data":{...}}
//
// Replies carry either data or an error:
//
//	{"data":{"players":[...]}}
//	{"error":{"code":"session_expired","message":"Not logged on"}}
//	{"error":{"code":"challenge","field":"captcha","url":"https://...","message":"..."}}
//
// The codes session_expired and challenge become steam.ErrSessionExpired and
// *steam.ChallengeError; any other code is wrapped in ErrRemote.
//
// # Usage
//
//	conn, err := transport.DialNATS(transport.NATSConfig{URL: nats.DefaultURL})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t := transport.NewNATSTransport(conn, transport.Options{Account: "alice"})
package transport
