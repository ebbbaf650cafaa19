// Package registry implements the configuration registry state machine
// (spec section 4.4): discovering configurations announced on T-chain,
// validating and bootstrap-voting on them, and spawning or stopping the
// direction-appropriate handler as their on-chain status changes.
package registry

import "github.com/tonbridge/relay/pkg/tontransport"

// Status is a configuration's lifecycle state as tracked by this relay.
type Status int

const (
	StatusObserved Status = iota
	StatusVoting
	StatusActive
	StatusDiscarded
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusObserved:
		return "observed"
	case StatusVoting:
		return "voting"
	case StatusActive:
		return "active"
	case StatusDiscarded:
		return "discarded"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopMode distinguishes a BridgeConfigurationUpdate that deactivates a
// configuration (stop accepting new events, keep retrying what's pending)
// from one that discards it outright (drop pending work too). spec.md
// section 4.4 only names the former explicitly; the distinction itself is
// carried over from original_source's BridgeConfigurationUpdate handling.
type StopMode int

const (
	StopGraceful StopMode = iota
	StopDiscard
)

// Configuration tracks one EventConfiguration as observed by this relay
// (spec section 3).
type Configuration struct {
	ID                uint64
	Address           tontransport.Address
	Details           tontransport.ConfigurationDetails
	Status            Status
	LastAcceptedNonce uint64
}

// IsEthToTon reports whether this configuration watches E-chain events.
func (c *Configuration) IsEthToTon() bool {
	return c.Details.Kind == "eth_to_ton"
}
