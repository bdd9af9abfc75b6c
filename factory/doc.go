// Package factory creates the remote API transport of an account session.
//
// A TransportFactory hands out either a NATSTransport talking to the poller
// service or an in-memory SimulatedTransport for dry runs. The mode comes from
// the factory Config and can be forced with the STEAMSYNC_USE_SIMULATION
// environment variable:
//
//	f := factory.New(factory.Config{PollTimeout: 30 * time.Second})
//	tr, err := f.Create(nc, "gordon", entry)
//	if err != nil {
//	    return err
//	}
//
// Timeouts read from STEAMSYNC_REQUEST_TIMEOUT and STEAMSYNC_POLL_TIMEOUT are
// bounded by MinTimeout and MaxTimeout; out of range values are ignored.
package factory
