package settlement

import (
	"context"
	"errors"
	"testing"

	"PictureMarket/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(blocks *fakeBlocks) (Verifier, string, string) {
	addresses := ledger.AddressDeriver{Prefix: "pic"}
	v := Verifier{Ledger: blocks, Addresses: addresses}
	from, _ := addresses.Derive(buyerID)
	to, _ := addresses.Derive(sellerID)
	return v, from, to
}

func TestVerifyAllFieldsMatch(t *testing.T) {
	blocks := &fakeBlocks{chainLength: 43, blocks: map[uint64]ledger.Block{}}
	v, from, to := newVerifier(blocks)
	blocks.blocks[42] = ledger.Block{
		Memo:     777,
		Transfer: &ledger.Transfer{From: from, To: to, Amount: 110},
	}

	ok, err := v.Verify(context.Background(), buyerID, sellerID, 110, 42, 777)
	require.NoError(t, err)
	assert.True(t, ok)
}

// Any single mismatch of sender, receiver, amount, or memo fails verification
// even when the other three match exactly.
func TestVerifyConjunction(t *testing.T) {
	blocks := &fakeBlocks{chainLength: 43, blocks: map[uint64]ledger.Block{}}
	v, from, to := newVerifier(blocks)
	blocks.blocks[42] = ledger.Block{
		Memo:     777,
		Transfer: &ledger.Transfer{From: from, To: to, Amount: 110},
	}

	cases := []struct {
		name     string
		payer    string
		receiver string
		amount   uint64
		memo     uint64
	}{
		{"wrong sender", "mallory", sellerID, 110, 777},
		{"wrong receiver", buyerID, "mallory", 110, 777},
		{"wrong amount", buyerID, sellerID, 109, 777},
		{"wrong memo", buyerID, sellerID, 110, 778},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := v.Verify(context.Background(), tc.payer, tc.receiver, tc.amount, 42, tc.memo)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyNoTransferOperation(t *testing.T) {
	blocks := &fakeBlocks{chainLength: 43, blocks: map[uint64]ledger.Block{
		42: {Memo: 777},
	}}
	v, _, _ := newVerifier(blocks)

	ok, err := v.Verify(context.Background(), buyerID, sellerID, 110, 42, 777)
	require.NoError(t, err)
	assert.False(t, ok)
}

// An index at or past the chain tip is a verification failure, not a crash.
func TestVerifyOutOfRangeBlock(t *testing.T) {
	blocks := &fakeBlocks{chainLength: 10, blocks: map[uint64]ledger.Block{}}
	v, _, _ := newVerifier(blocks)

	ok, err := v.Verify(context.Background(), buyerID, sellerID, 110, 10, 777)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Verify(context.Background(), buyerID, sellerID, 110, 9999, 777)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyLedgerUnreachable(t *testing.T) {
	blocks := &fakeBlocks{err: errors.New("connection refused")}
	v, _, _ := newVerifier(blocks)

	_, err := v.Verify(context.Background(), buyerID, sellerID, 110, 42, 777)
	assert.Error(t, err)
}
