// Package account persists per-account settings behind
// interfaces.IKeyValueStore and gives the session typed access to them.
//
// # Stores
//
//   - MemoryStore: in-process map, for tests and one-shot runs
//   - FileStore: one YAML file per account, rewritten atomically
//   - RedisStore: one hash per account (steamsync:account:{name})
//   - PostgresStore: one row per (account, key) in steamsync_account_settings
//
// # Settings
//
// Settings maps keys onto typed values:
//
//	token         session token (sealed when a crypto.Sealer is configured)
//	steamid       account identity
//	umqid         message queue id of the last logon
//	esid, cgid    challenge context handed back by the remote service
//	game_status   announce game activity to shared channels (default false)
//	show_playing  display mode for playing contacts: "@", "%", "+" or other
//	              (default "%")
//
// Guard codes and captcha answers are never persisted.
package account
