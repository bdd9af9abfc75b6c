// Package messaging tracks outbound chat messages and typing notices for a
// session and formats inbound chat text for the host.
//
// # Outbound
//
// A message is prepared (validated against limits.MaxChatMessage), begun
// (handed a cancellable context for the transport call) and completed with
// the transport's result:
//
//	msg, err := mgr.Prepare(id, "hello")
//	if err != nil {
//	    return err
//	}
//	ctx = mgr.Begin(ctx, msg)
//	err = transport.SendMessage(ctx, msg.To, msg.Text, msg.Kind)
//	mgr.Complete(msg.ID, err)
//
// Disconnecting calls CancelAll, which cancels every in-flight send.
//
// # Emotes
//
// Text starting with "/me " is sent as an emote only when the manager was
// created with emotes allowed. The remote service rejects emotes from some
// clients, so the default is to send such text verbatim.
package messaging
