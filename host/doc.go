// Package host provides interfaces.IHost implementations for running
// sessions outside a chat client.
//
//   - LogHost writes notifications to logrus.
//   - NATSHost publishes them as JSON on {prefix}.{account}.{kind}.
//   - Multi fans out to several hosts.
//
// A daemon typically combines them:
//
//	h := host.Multi{
//	    host.NewLogHost(log),
//	    host.NewNATSHost(conn, "steamsync.host", "alice", log),
//	}
//
// CommandRouter is the inbound half. It subscribes to
// {prefix}.{account}.cmd.* and drives an interfaces.ISession with challenge
// answers, outbound messages, typing, profile lookups and setting changes. A
// command sent as a request gets a CommandReply.
package host
