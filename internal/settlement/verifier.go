package settlement

import (
	"context"

	"PictureMarket/internal/ledger"
)

type BlockSource interface {
	QueryBlocks(ctx context.Context, start, length uint64) (*ledger.QueryBlocksResult, error)
}

// Verifier confirms that a specific ledger block carries the transfer a
// settlement expects. It answers false for any mismatch; an error means the
// ledger itself could not be queried.
type Verifier struct {
	Ledger    BlockSource
	Addresses ledger.AddressDeriver
}

// Verify fetches exactly the block at the supplied index and requires all
// four of sender, receiver, memo, and amount to match. An index at or past
// the chain tip is a verification failure, not a fault.
func (v Verifier) Verify(ctx context.Context, payer, receiver string, amount, block, memo uint64) (bool, error) {
	res, err := v.Ledger.QueryBlocks(ctx, block, 1)
	if err != nil {
		return false, err
	}
	if block >= res.ChainLength || len(res.Blocks) == 0 {
		return false, nil
	}

	b := res.Blocks[0]
	if b.Transfer == nil {
		return false, nil
	}

	payerAddr, err := v.Addresses.Derive(payer)
	if err != nil {
		return false, err
	}
	receiverAddr, err := v.Addresses.Derive(receiver)
	if err != nil {
		return false, err
	}

	return b.Memo == memo &&
		b.Transfer.From == payerAddr &&
		b.Transfer.To == receiverAddr &&
		b.Transfer.Amount == amount, nil
}
