// Package limits provides centralized size constants and validation functions
// shared by the session, the account stores and the transport.
//
// # Limits
//
//   - MaxChatMessage (2048 bytes): outgoing chat text. Typing notices carry no
//     text and are not validated.
//   - MaxSettingValue (4096 bytes): a single persisted setting, after sealing.
//   - MaxProcessingBuffer (1MB): any reply received from the remote service.
//
// # Validation Functions
//
// Each validation function returns a wrapped sentinel error:
//
//	if err := limits.ValidateChatMessage(text); err != nil {
//	    if errors.Is(err, limits.ErrMessageTooLarge) {
//	        // tell the user
//	    }
//	}
//
// For custom size limits, use the generic ValidateMessageSize function:
//
//	err := limits.ValidateMessageSize(data, 4096)
package limits
