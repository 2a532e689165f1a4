package payments

import (
	"context"
	"errors"
	"testing"

	"PictureMarket/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	cost        uint64
	feeErr      error
	transferErr error
	calls       []ledger.TransferArgs
}

func (f *fakeLedger) TransferFee(ctx context.Context) (uint64, error) {
	return f.cost, f.feeErr
}

func (f *fakeLedger) Transfer(ctx context.Context, args ledger.TransferArgs) (uint64, error) {
	f.calls = append(f.calls, args)
	if f.transferErr != nil {
		return 0, f.transferErr
	}
	return 1, nil
}

func newCollector(l *fakeLedger) Collector {
	return Collector{
		Ledger:    l,
		Addresses: ledger.AddressDeriver{Prefix: "pic"},
		Platform:  "platform",
	}
}

func TestCollect(t *testing.T) {
	l := &fakeLedger{cost: 3}
	c := newCollector(l)

	require.NoError(t, c.Collect(context.Background(), "buyer", 10))

	require.Len(t, l.calls, 1)
	args := l.calls[0]
	assert.Equal(t, uint64(7), args.Amount)
	assert.Equal(t, uint64(3), args.Fee)
	assert.Equal(t, uint64(0), args.Memo)

	platformAddr, err := c.Addresses.Derive("platform")
	require.NoError(t, err)
	assert.Equal(t, platformAddr, args.To)
	assert.Equal(t, c.Addresses.Subaccount("buyer"), args.FromSubaccount)
}

func TestCollectFeeBelowTransferCost(t *testing.T) {
	l := &fakeLedger{cost: 10}
	c := newCollector(l)

	err := c.Collect(context.Background(), "buyer", 10)
	require.Error(t, err)
	assert.Empty(t, l.calls)
}

func TestCollectTransferRejected(t *testing.T) {
	l := &fakeLedger{cost: 1, transferErr: errors.New("insufficient funds")}
	c := newCollector(l)

	err := c.Collect(context.Background(), "buyer", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestCollectFeeQueryFails(t *testing.T) {
	l := &fakeLedger{feeErr: errors.New("ledger down")}
	c := newCollector(l)

	err := c.Collect(context.Background(), "buyer", 10)
	require.Error(t, err)
	assert.Empty(t, l.calls)
}
