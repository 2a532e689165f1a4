// Package worker runs the housekeeping side of settlement: it reaps pending
// orders past their TTL and tails the ledger for transfers whose memo matches
// a pending order, recording them as payment sightings.
package worker

import (
	"context"
	"log"
	"time"

	"PictureMarket/internal/ledger"
	"PictureMarket/internal/models"
)

type Store interface {
	DiscardExpired(ctx context.Context, now time.Time) (int64, error)
	ListPendingOrders(ctx context.Context) ([]*models.Order, error)
	GetPendingOrder(ctx context.Context, memo uint64) (*models.Order, error)
	InsertSighting(ctx context.Context, sighting *models.PaymentSighting) error
	GetSyncHeight(ctx context.Context) (int64, error)
	SetSyncHeight(ctx context.Context, height int64) error
}

type LedgerSource interface {
	ChainLength(ctx context.Context) (uint64, error)
	QueryBlocks(ctx context.Context, start, length uint64) (*ledger.QueryBlocksResult, error)
}

type Worker struct {
	Store            Store
	Ledger           LedgerSource
	StartBlock       int64
	MaxBlocksPerTick int64
	Interval         time.Duration
	WSEndpoint       string
}

func (w *Worker) Run(ctx context.Context) {
	go w.RunWS(ctx)
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := w.SyncOnce(ctx); err != nil {
			log.Printf("sync error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) SyncOnce(ctx context.Context) error {
	discarded, err := w.Store.DiscardExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if discarded > 0 {
		log.Printf("discarded %d expired pending orders", discarded)
	}

	length, err := w.Ledger.ChainLength(ctx)
	if err != nil {
		return err
	}
	to := int64(length) - 1
	if to < 0 {
		return nil
	}

	// GetSyncHeight is -1 on a fresh database, so the scan starts at the
	// genesis block unless a start height is configured.
	last, err := w.Store.GetSyncHeight(ctx)
	if err != nil {
		return err
	}
	from := last + 1
	if last < 0 && w.StartBlock > 0 {
		from = w.StartBlock
	}
	if from > to {
		return nil
	}
	if w.MaxBlocksPerTick > 0 {
		limitTo := from + w.MaxBlocksPerTick - 1
		if limitTo < to {
			to = limitTo
		}
	}

	if err := w.scanRange(ctx, from, to); err != nil {
		return err
	}

	return w.Store.SetSyncHeight(ctx, to)
}

func (w *Worker) scanRange(ctx context.Context, from, to int64) error {
	orders, err := w.Store.ListPendingOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	pending := make(map[uint64]*models.Order, len(orders))
	for _, order := range orders {
		pending[order.Memo] = order
	}

	res, err := w.Ledger.QueryBlocks(ctx, uint64(from), uint64(to-from+1))
	if err != nil {
		return err
	}

	for i, block := range res.Blocks {
		index := uint64(from) + uint64(i)
		if err := w.recordMatch(ctx, block, index, pending); err != nil {
			log.Printf("record sighting failed block=%d: %v", index, err)
		}
	}
	return nil
}

func (w *Worker) recordMatch(ctx context.Context, block ledger.Block, index uint64, pending map[uint64]*models.Order) error {
	if block.Transfer == nil {
		return nil
	}
	order, ok := pending[block.Memo]
	if !ok {
		return nil
	}

	if err := w.Store.InsertSighting(ctx, &models.PaymentSighting{
		Memo:        block.Memo,
		BlockIndex:  index,
		FromAddress: block.Transfer.From,
		ToAddress:   block.Transfer.To,
		Amount:      block.Transfer.Amount,
	}); err != nil {
		return err
	}
	log.Printf("payment sighted memo=%d block=%d amount=%d (order picture=%s)", block.Memo, index, block.Transfer.Amount, order.PictureID)
	return nil
}
