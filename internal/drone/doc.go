// Package drone is the control client for a single drone.
//
// A Client owns the command channel, the keep-alive ticker and every
// goroutine started on its behalf. Commands are sent one at a time and
// composed with Chain: each call returns a Step that is either
// Continuable or Broken, and a Broken step never contacts the device again.
//
//	ok := client.Chain(ctx, command.Raw("takeoff")).
//		Chain(ctx, command.Rotate(90, false)).
//		Chain(ctx, command.Raw("land")).
//		Continuable()
//
// Close releases everything the client owns and is safe to call more than
// once. BeforeLand with Turnoff schedules the same teardown asynchronously;
// ShutdownDone reports when it has finished.
package drone
