package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tolelom/vivorun/core"
)

// Client calls a node's JSON-RPC endpoint.
type Client struct {
	url       string
	authToken string
	http      *http.Client
	nextID    atomic.Int64
}

// NewClient creates a Client for the endpoint at url.
func NewClient(url, authToken string) *Client {
	return &Client{
		url:       url,
		authToken: authToken,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Call invokes method with params and decodes the result into out. A JSON-RPC
// error is returned as *Error. A null result leaves out untouched.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return fmt.Errorf("decode %s response (HTTP %d): %w", method, httpResp.StatusCode, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

// SendTx submits a signed transaction and returns its ID.
func (c *Client) SendTx(ctx context.Context, tx *core.Transaction) (string, error) {
	var out struct {
		TxID string `json:"tx_id"`
	}
	if err := c.Call(ctx, "sendTx", tx, &out); err != nil {
		return "", err
	}
	return out.TxID, nil
}

// Nonce returns the next nonce expected from address.
func (c *Client) Nonce(ctx context.Context, address string) (uint64, error) {
	var acc core.Account
	if err := c.Call(ctx, "getNonce", map[string]string{"address": address}, &acc); err != nil {
		return 0, err
	}
	return acc.Nonce, nil
}

// PlayerStats returns the committed stats of player.
func (c *Client) PlayerStats(ctx context.Context, player string) (*core.PlayerStats, error) {
	var stats core.PlayerStats
	if err := c.Call(ctx, "getPlayerStats", map[string]string{"player": player}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Quest returns the quest with id, or nil when it does not exist.
func (c *Client) Quest(ctx context.Context, id uint32) (*core.Quest, error) {
	var q *core.Quest
	if err := c.Call(ctx, "getQuest", map[string]uint32{"quest_id": id}, &q); err != nil {
		return nil, err
	}
	return q, nil
}

// QuestProgress returns the player's progress on quest id.
func (c *Client) QuestProgress(ctx context.Context, player string, id uint32) (*core.QuestProgress, error) {
	var p core.QuestProgress
	params := map[string]any{"player": player, "quest_id": id}
	if err := c.Call(ctx, "getQuestProgress", params, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Receipt returns the receipt of txID, or nil while it is still pending.
func (c *Client) Receipt(ctx context.Context, txID string) (*core.Receipt, error) {
	var r *core.Receipt
	if err := c.Call(ctx, "getTxReceipt", map[string]string{"tx_id": txID}, &r); err != nil {
		return nil, err
	}
	return r, nil
}
