// Package async provides the serialized execution loop that owns a session's
// state.
//
// # Overview
//
// A Loop runs posted closures one at a time on a dedicated goroutine.
// Blocking work such as remote calls runs elsewhere through Call, and its
// result is posted back to the loop:
//
//	loop := async.NewLoop(logrus.WithField("session_id", id))
//	loop.Start()
//	defer loop.Stop()
//
//	async.Call(ctx, loop, transport.FetchRoster, func(ids []steam.ID, err error) {
//	    // runs on the loop
//	})
//
// # Stopping
//
// Stop never blocks and may be called from inside a task. Tasks still queued
// at that point are discarded, and completions from in-flight calls are
// dropped. Wait blocks until the loop goroutine and every in-flight call
// have returned.
//
// # Panics
//
// A panicking task is logged and the loop keeps running.
package async
