// Package state holds the client-side entity caches for audio files,
// transcriptions, and conversations.
//
// Every operation follows one pattern: mark the store busy and clear the
// previous error, call the API, then merge the result. Merging replaces an
// entity in place when its id is already cached and prepends it otherwise,
// so the most recent entities display first. When two updates to the same id
// race, the response that completes last wins; this is the intended policy
// for human-paced interactions, not an oversight.
package state

import "sync"

// tracker carries the busy flag and last error message shared by all stores.
type tracker struct {
	mu      sync.Mutex
	busy    bool
	lastErr string
}

// begin marks the store busy and clears any previous error.
func (t *tracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = true
	t.lastErr = ""
}

// done records the outcome and clears the busy flag. It returns err
// unchanged so callers can hand the result straight back.
func (t *tracker) done(err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = false
	if err != nil {
		t.lastErr = err.Error()
	}
	return err
}

// Busy reports whether an operation is in flight.
func (t *tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Err returns the last stored error message, or "" when none.
func (t *tracker) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// ClearErr dismisses the stored error without issuing a new request.
func (t *tracker) ClearErr() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = ""
}
