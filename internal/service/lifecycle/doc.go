// Package lifecycle owns the single active alert session.
//
// Every trigger (accept, reject, out-of-band dismiss, presentation destroy,
// deadline, supersession by a newer alert) goes through one mutex-guarded
// Machine. Only the first trigger to find the session presenting resolves it;
// later triggers see a terminal state and do nothing, so the outbound effects
// of a session are dispatched exactly once.
package lifecycle
