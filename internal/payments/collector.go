// Package payments moves the platform's order fee out of a buyer's ledger
// balance as the final external step of settlement completion.
package payments

import (
	"context"
	"fmt"

	"PictureMarket/internal/ledger"
)

type TransferClient interface {
	TransferFee(ctx context.Context) (uint64, error)
	Transfer(ctx context.Context, args ledger.TransferArgs) (uint64, error)
}

type Collector struct {
	Ledger    TransferClient
	Addresses ledger.AddressDeriver
	Platform  string
}

// Collect submits one transfer of fee minus the network transfer cost to the
// platform account, with the cost as the explicit fee. A ledger rejection is
// returned verbatim and never retried.
func (c Collector) Collect(ctx context.Context, payer string, fee uint64) error {
	cost, err := c.Ledger.TransferFee(ctx)
	if err != nil {
		return fmt.Errorf("query transfer fee: %w", err)
	}
	if fee <= cost {
		return fmt.Errorf("order fee %d does not cover transfer cost %d", fee, cost)
	}

	platformAddr, err := c.Addresses.Derive(c.Platform)
	if err != nil {
		return err
	}

	_, err = c.Ledger.Transfer(ctx, ledger.TransferArgs{
		Memo:           0,
		Amount:         fee - cost,
		Fee:            cost,
		FromSubaccount: c.Addresses.Subaccount(payer),
		To:             platformAddr,
	})
	if err != nil {
		return fmt.Errorf("fee transfer rejected: %w", err)
	}
	return nil
}
