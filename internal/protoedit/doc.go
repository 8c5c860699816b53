// Package protoedit edits protobuf-encoded buffers without a schema.
//
// A buffer is treated as a flat sequence of field occurrences, each a varint
// tag followed by a payload framed by its wire type. The package can frame,
// find and remove occurrences, and append new ones, but it never decodes
// payloads beyond what framing requires and never reorders or merges
// occurrences.
//
// All functions are pure and safe for concurrent use. Failures are reported as
// errors wrapping ErrTruncatedInput, ErrMalformedVarint, ErrUnsupportedWireType
// and ErrMalformedField; nothing in this package panics on malformed input.
//
// # Usage
//
//	clean, err := protoedit.RemoveField(blob, 6)
//	if err != nil {
//	    return err // never persist a partially edited buffer
//	}
//	clean = protoedit.AppendStringField(clean, 2, email)
package protoedit
