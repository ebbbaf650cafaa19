// Package relayerr holds the sentinel errors for the relay's error taxonomy.
//
// Transport and Storage failures are recovered with bounded retry at their
// originating component; Vault and Signing failures are fatal at startup or
// in steady state respectively. Decode failures never escape the handler
// that produced them. See spec section 7.
package relayerr

import "errors"

// Vault errors (fatal at unlock).
var (
	ErrInvalidPassword = errors.New("vault: invalid password")
	ErrCorruptVault    = errors.New("vault: corrupt on-disk record")
)

// Protocol errors (handled locally by the submitter).
var (
	ErrDuplicateMessage = errors.New("submitter: duplicate message in flight")
	ErrMessageExpired   = errors.New("submitter: message expired before landing")
)

// Codec errors (per-event, never propagate past the handler).
var (
	ErrUnsupportedType = errors.New("codec: unsupported ABI type")
	ErrShapeMismatch   = errors.New("codec: value shape does not match ABI type")
	ErrLeftoverInput   = errors.New("codec: cell read did not consume all bits/refs")
)

// Storage errors.
var (
	ErrMetaNotFound = errors.New("store: metadata not found")
	ErrNotFound     = errors.New("store: key not found")
)

// Registry errors.
var (
	ErrConfigurationNotFound = errors.New("registry: configuration not found")
	ErrStaleNonce            = errors.New("registry: update nonce is not newer than last accepted")
)
