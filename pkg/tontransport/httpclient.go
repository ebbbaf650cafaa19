package tontransport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient implements Transport against a toncenter-style HTTP API
// (getAddressInformation/getTransactions/runGetMethod/sendBoc). No TON SDK
// appears anywhere in the retrieved corpus, unlike the E-chain side's
// go-ethereum binding, so this talks the wire protocol directly over
// net/http and encoding/json rather than through a generated client.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient constructs a Transport against the given toncenter-style
// endpoint. apiKey is sent as the "X-API-Key" header when non-empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query map[string]string, body interface{}, out interface{}) error {
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			return fmt.Errorf("tontransport: encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &reqBody)
	if err != nil {
		return fmt.Errorf("tontransport: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	q := req.URL.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tontransport: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("tontransport: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type masterchainInfoResponse struct {
	Result struct {
		Last struct {
			Seqno uint64 `json:"seqno"`
		} `json:"last"`
	} `json:"result"`
}

// CurrentLT reports addr's latest transaction logical time.
func (c *HTTPClient) CurrentLT(ctx context.Context, addr Address) (uint64, error) {
	var resp struct {
		Result struct {
			LastTransactionLT string `json:"last_transaction_lt"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/getAddressInformation", map[string]string{
		"address": addr.String(),
	}, nil, &resp); err != nil {
		return 0, err
	}
	var lt uint64
	if _, err := fmt.Sscanf(resp.Result.LastTransactionLT, "%d", &lt); err != nil {
		return 0, fmt.Errorf("tontransport: parse lt %q: %w", resp.Result.LastTransactionLT, err)
	}
	return lt, nil
}

type runGetMethodResponse struct {
	Result struct {
		Stack [][2]interface{} `json:"stack"`
	} `json:"result"`
}

// GetConfigurationDetails invokes the configuration contract's getDetails
// get-method and decodes the returned stack.
func (c *HTTPClient) GetConfigurationDetails(ctx context.Context, addr Address) (ConfigurationDetails, error) {
	var resp runGetMethodResponse
	body := map[string]interface{}{
		"address": addr.String(),
		"method":  "getDetails",
		"stack":   []interface{}{},
	}
	if err := c.do(ctx, http.MethodPost, "/runGetMethod", nil, body, &resp); err != nil {
		return ConfigurationDetails{}, err
	}
	return decodeConfigurationDetails(resp.Result.Stack)
}

type getTransactionsResponse struct {
	Result []struct {
		TransactionID struct {
			Hash string `json:"hash"`
			LT   string `json:"lt"`
		} `json:"transaction_id"`
		UTime   uint32 `json:"utime"`
		InMsg   struct {
			MsgData struct {
				Body string `json:"body"`
			} `json:"msg_data"`
		} `json:"in_msg"`
	} `json:"result"`
}

// SubscribeMessages polls addr's transaction history every pollInterval and
// delivers messages with lt > sinceLT, in ascending lt order. Grounded on
// the T→E handler's own poll-until-cancel loop: the toncenter HTTP API has
// no push/websocket surface, so subscription here means short polling.
func (c *HTTPClient) SubscribeMessages(ctx context.Context, addr Address, sinceLT uint64) (<-chan Message, error) {
	out := make(chan Message, 16)
	go func() {
		defer close(out)
		const pollInterval = 4 * time.Second
		lastLT := sinceLT
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			var resp getTransactionsResponse
			if err := c.do(ctx, http.MethodGet, "/getTransactions", map[string]string{
				"address": addr.String(),
				"limit":   "50",
			}, nil, &resp); err != nil {
				continue
			}
			for i := len(resp.Result) - 1; i >= 0; i-- {
				tx := resp.Result[i]
				var lt uint64
				if _, err := fmt.Sscanf(tx.TransactionID.LT, "%d", &lt); err != nil || lt <= lastLT {
					continue
				}
				body, err := base64.StdEncoding.DecodeString(tx.InMsg.MsgData.Body)
				if err != nil {
					continue
				}
				msg := Message{
					Body:      body,
					LT:        lt,
					Timestamp: tx.UTime,
				}
				hash, err := base64.StdEncoding.DecodeString(tx.TransactionID.Hash)
				if err == nil && len(hash) == 32 {
					copy(msg.TxHash[:], hash)
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
				lastLT = lt
			}
		}
	}()
	return out, nil
}

// SendMessage records the destination's current lt, base64-encodes msg's
// body and submits it via sendBoc, then polls the destination until its lt
// moves past the recorded value, bounded by msg.ExpireAt. Any new
// transaction on the destination counts as the message landing; its inbound
// message is not inspected.
func (c *HTTPClient) SendMessage(ctx context.Context, msg OutboundMessage, signature [64]byte) (SendResult, error) {
	before, err := c.CurrentLT(ctx, msg.Dest)
	if err != nil {
		return SendResult{}, err
	}
	boc := signedMessageBOC(msg, signature)
	body := map[string]interface{}{
		"boc": base64.StdEncoding.EncodeToString(boc),
	}
	if err := c.do(ctx, http.MethodPost, "/sendBoc", nil, body, nil); err != nil {
		return SendResult{}, err
	}

	deadline := time.Unix(int64(msg.ExpireAt), 0)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		if time.Now().After(deadline) {
			return SendResult{Landed: false, Expired: true}, nil
		}
		select {
		case <-ctx.Done():
			return SendResult{}, ctx.Err()
		case <-ticker.C:
		}
		lt, err := c.CurrentLT(ctx, msg.Dest)
		if err != nil {
			continue
		}
		if lt > before {
			return SendResult{Landed: true, Success: true}, nil
		}
	}
}
