// Package dispatch translates lifecycle decisions into host effects.
//
// The Gateway implements lifecycle.Dispatcher over a presentation host and a
// navigation host. The DismissHook is the inbound side used by the action
// button of a passive notification; it resolves through the same reject
// transition as the in-UI reject button.
package dispatch
