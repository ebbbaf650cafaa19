package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tonbridge/relay/pkg/registry"
	"github.com/tonbridge/relay/pkg/tontransport"
)

// parseTonAddress parses the "<workchain>:<hex account id>" form used
// throughout the config file's *_contract_address fields.
func parseTonAddress(raw string) (tontransport.Address, error) {
	return tontransport.ParseAddress(raw)
}

// bridgeNotice is the bridge contract's configuration-discovery envelope.
// Neither spec.md nor the original implementation specifies how
// NewEventConfiguration/BridgeConfigurationUpdate are framed on the wire, so
// this is a concrete minimal convention: one JSON object per message body,
// tagged by "type".
type bridgeNotice struct {
	Type                  string `json:"type"`
	ConfigurationID       uint64 `json:"configuration_id"`
	Address               string `json:"address,omitempty"`
	Nonce                 uint64 `json:"nonce,omitempty"`
	RequiredConfirmations uint16 `json:"required_confirmations,omitempty"`
	RequiredRejects       uint16 `json:"required_rejects,omitempty"`
	Active                bool   `json:"active,omitempty"`
}

// runDiscovery watches the bridge contract's message stream for
// NewEventConfiguration and BridgeConfigurationUpdate notices (spec section
// 4.4) and feeds them into the registry. Grounded on tontoeth.Handler's
// consumeLoop: a subscribe-and-range-over-channel loop ended by ctx.
func (s *Service) runDiscovery(ctx context.Context, bridgeAddr tontransport.Address) {
	msgs, err := s.tonTransport.SubscribeMessages(ctx, bridgeAddr, 0)
	if err != nil {
		s.logger.Printf("discovery: subscribe to bridge contract failed: %v", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := s.handleBridgeNotice(ctx, msg); err != nil {
				s.logger.Printf("discovery: message at lt %d: %v", msg.LT, err)
			}
		}
	}
}

func (s *Service) handleBridgeNotice(ctx context.Context, msg tontransport.Message) error {
	var n bridgeNotice
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		return fmt.Errorf("decode bridge notice: %w", err)
	}

	switch n.Type {
	case "new_configuration":
		addr, err := parseTonAddress(n.Address)
		if err != nil {
			return err
		}
		s.RegistryAddr(addr, n.ConfigurationID)
		return s.registry.HandleNewConfiguration(ctx, registry.NewConfigurationNotice{
			ID:      n.ConfigurationID,
			Address: addr,
		})
	case "update_configuration":
		return s.registry.HandleUpdate(registry.BridgeConfigurationUpdate{
			ConfigurationID:       n.ConfigurationID,
			Nonce:                 n.Nonce,
			RequiredConfirmations: n.RequiredConfirmations,
			RequiredRejects:       n.RequiredRejects,
			Active:                n.Active,
		})
	default:
		return fmt.Errorf("unknown bridge notice type %q", n.Type)
	}
}
