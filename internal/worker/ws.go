package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"PictureMarket/internal/ledger"
	"PictureMarket/internal/models"
	"PictureMarket/internal/store"
)

func (w *Worker) RunWS(ctx context.Context) {
	if w.WSEndpoint == "" {
		log.Printf("ws disabled: ws_endpoint is empty")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		client := ledger.NewWSClient(w.WSEndpoint)
		if err := client.Connect(ctx); err != nil {
			log.Printf("ws connect failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		log.Printf("ws connected %s", w.WSEndpoint)

		if err := client.Subscribe(); err != nil {
			log.Printf("ws subscribe failed: %v", err)
			client.Close()
			time.Sleep(3 * time.Second)
			continue
		}

		for {
			msg, err := client.Read()
			if err != nil {
				log.Printf("ws read failed: %v", err)
				client.Close()
				break
			}

			block, ok, err := ledger.ParseWSBlock(msg)
			if err != nil {
				log.Printf("ws parse failed: %v", err)
				continue
			}
			if !ok || block.Transfer == nil {
				continue
			}

			order, err := w.Store.GetPendingOrder(ctx, block.Memo)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				log.Printf("ws get pending order failed: %v", err)
				continue
			}

			if err := w.Store.InsertSighting(ctx, &models.PaymentSighting{
				Memo:        block.Memo,
				BlockIndex:  block.Index,
				FromAddress: block.Transfer.From,
				ToAddress:   block.Transfer.To,
				Amount:      block.Transfer.Amount,
			}); err != nil {
				log.Printf("ws insert sighting failed: %v", err)
				continue
			}
			log.Printf("payment sighted memo=%d block=%d amount=%d (order picture=%s)", block.Memo, block.Index, block.Transfer.Amount, order.PictureID)
		}

		time.Sleep(2 * time.Second)
	}
}
