// Package packet owns the wire contract for the stream core.
//
// Ownership boundary:
// - packet record encode/decode (protobuf wire format)
// - message envelope encode/decode
// - chunking of a message body into bounded packets
package packet
