package crawler

import "errors"

// ErrSinkRejected wraps an error returned by the Sink. A sink that refuses
// records ends the run, since every later record would be lost as well.
var ErrSinkRejected = errors.New("write queue rejected record")
