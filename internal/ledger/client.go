package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transfer is the operation carried by a ledger block. Addresses are the
// bech32 form produced by AddressDeriver.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Block is one entry of the ledger's append-only history. Transfer is nil
// when the block carries no transfer operation.
type Block struct {
	Index    uint64    `json:"index"`
	Memo     uint64    `json:"memo"`
	Transfer *Transfer `json:"transfer"`
}

type QueryBlocksResult struct {
	ChainLength uint64  `json:"chain_length"`
	Blocks      []Block `json:"blocks"`
}

type TransferArgs struct {
	Memo           uint64  `json:"memo"`
	Amount         uint64  `json:"amount"`
	Fee            uint64  `json:"fee"`
	FromSubaccount string  `json:"from_subaccount,omitempty"`
	To             string  `json:"to"`
	CreatedAtTime  *uint64 `json:"created_at_time,omitempty"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) QueryBlocks(ctx context.Context, start, length uint64) (*QueryBlocksResult, error) {
	req := map[string]uint64{"start": start, "length": length}
	var resp QueryBlocksResult
	if err := c.postJSON(ctx, c.baseURL+"/query_blocks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChainLength reports the number of blocks in the ledger; valid block
// indexes are [0, length).
func (c *Client) ChainLength(ctx context.Context) (uint64, error) {
	res, err := c.QueryBlocks(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	return res.ChainLength, nil
}

func (c *Client) TransferFee(ctx context.Context) (uint64, error) {
	var resp struct {
		TransferFee struct {
			Amount uint64 `json:"amount"`
		} `json:"transfer_fee"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/transfer_fee", &resp); err != nil {
		return 0, err
	}
	return resp.TransferFee.Amount, nil
}

func (c *Client) Transfer(ctx context.Context, args TransferArgs) (uint64, error) {
	var resp struct {
		BlockIndex uint64 `json:"block_index"`
		Error      string `json:"error"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/transfer", args, &resp); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, errors.New(resp.Error)
	}
	return resp.BlockIndex, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return fmt.Errorf("ledger http status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("ledger http status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
