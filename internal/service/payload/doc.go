// Package payload turns an inbound push message into a typed job alert.
//
// Parse accepts the flat string map a messaging transport delivers;
// ParseStruct accepts the protobuf Struct used on the gRPC wire. Messages
// that are not job alerts fail with ErrMalformedPayload so that callers can
// fall back to a generic notification.
package payload
