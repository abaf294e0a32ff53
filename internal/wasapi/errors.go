package wasapi

import "errors"

// ErrWaitTimeout is returned by EventHandle.Wait when the timeout
// elapses with no signal delivered — not itself a failure, callers
// use it to distinguish "nothing happened yet" from a real wait error.
var ErrWaitTimeout = errors.New("wasapi: wait timed out")
