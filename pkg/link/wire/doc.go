// Package wire encodes and decodes the 32-bit words exchanged between
// keyboard halves.
package wire

// Each word carries a 16-bit logical payload in its low half and a
// CRC-16/CCITT checksum of that payload in its high half. The payload
// packs a 5-bit sequence number, a 3-bit frame kind and an 8-bit body.
//
// The inter-half wire corrupts and drops words, so every frame goes out
// as two identical words back to back. The receiver takes the first copy
// that verifies and drops its partner. Frames lost entirely are recovered
// by the sequencing machinery in package link.
//
// An all-zero word never verifies, so an idle or shorted line cannot
// alias a frame.
