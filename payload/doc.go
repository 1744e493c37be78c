// Package payload defines the request payload model, its structural
// validation rules, and deterministic identifier derivation.
//
// A payload is two ordered, equal-length lists of strings. Its identifier
// is the SHA-256 digest of a canonical byte encoding, so equal payloads
// always derive equal identifiers regardless of transport-layer encoding.
package payload
