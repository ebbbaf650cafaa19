// Package tontoeth implements the T→E handler (spec section 4.6): consumes
// a T-chain account's message stream, stages observed events in a
// verification queue until their logical time is sufficiently finalized,
// then signs and hands completed votes off to the submitter.
package tontoeth

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tonbridge/relay/pkg/codec"
	"github.com/tonbridge/relay/pkg/tontransport"
)

// Config bounds one handler's verification behaviour.
type Config struct {
	ConfigurationID       uint64
	EventAddrOnT          tontransport.Address
	EventABI              *codec.EventABI
	EventCfgAddr          tontransport.Address
	ProxyAddrOnE          common.Address
	RequiredConfirmations uint16
	RequiredRejects       uint16
	VerificationInterval  time.Duration
	LtOffset              uint64
	AllowedTimeDiff       time.Duration
}
