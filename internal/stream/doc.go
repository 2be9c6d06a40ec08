// Package stream owns the message-transport core over one link.
//
// Ownership boundary:
// - outbound queue, message-id allocation, single-in-flight writer
// - inbound packet reassembly
// - compress/encrypt policy and ordering
// - observer registration and dispatch
//
// One Stream serves one link. Any protocol fault on the link (decode,
// sequencing, write failure) escalates to a single action: disconnect.
package stream
