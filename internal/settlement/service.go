// Package settlement owns the order lifecycle: a pending order is created
// against a listed picture, paid off-band through the external ledger under a
// correlation memo, and completed once the payment verifies and the platform
// fee is collected. Completion is the only mutation gate; every failure
// before it leaves no state behind.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PictureMarket/internal/ledger"
	"PictureMarket/internal/memo"
	"PictureMarket/internal/models"
	"PictureMarket/internal/store"
)

type Store interface {
	GetPicture(ctx context.Context, id string) (*models.Picture, error)
	InsertPendingOrder(ctx context.Context, order *models.Order) error
	GetPendingOrder(ctx context.Context, m uint64) (*models.Order, error)
	CompleteOrder(ctx context.Context, m, block uint64, buyer string) (*models.Order, error)
	GetOrder(ctx context.Context, m uint64) (*models.Order, error)
	ListOrdersByPayer(ctx context.Context, payer string) ([]*models.Order, error)
	ListSightings(ctx context.Context, m uint64) ([]*models.PaymentSighting, error)
}

type FeeCollector interface {
	Collect(ctx context.Context, payer string, fee uint64) error
}

type Service struct {
	Store     Store
	Verifier  Verifier
	Fees      FeeCollector
	Addresses ledger.AddressDeriver
	OrderFee  uint64
	TTL       time.Duration

	// Now is overridable so memo generation is reproducible in tests.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrder prices the picture at its listed price plus the configured
// order fee, both fixed at this moment: a later fee change never drifts an
// existing order's amount. The returned order carries the memo the buyer
// must reference in the off-band ledger payment.
func (s *Service) CreateOrder(ctx context.Context, pictureID, caller string) (*models.Order, error) {
	if caller == "" {
		return nil, ErrMissingIdentity
	}
	if s.OrderFee == 0 {
		return nil, ErrFeeNotConfigured
	}

	picture, err := s.Store.GetPicture(ctx, pictureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPictureNotFound
		}
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		Memo:      memo.Generate(pictureID, caller, uint64(now.UnixNano())),
		PictureID: pictureID,
		Status:    models.OrderPending,
		Amount:    picture.Price + s.OrderFee,
		Payer:     caller,
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}

	if err := s.Store.InsertPendingOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, ErrMemoCollision
		}
		return nil, err
	}
	return order, nil
}

// CompleteOrder settles a pending order. Steps before the store commit are
// side-effect free on failure; once the pending row is consumed the memo can
// never complete again.
func (s *Service) CompleteOrder(ctx context.Context, pictureID string, block, m uint64, buyer, caller string) (*models.Order, error) {
	if caller == "" {
		return nil, ErrMissingIdentity
	}
	if s.OrderFee == 0 {
		return nil, ErrFeeNotConfigured
	}

	picture, err := s.Store.GetPicture(ctx, pictureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPictureNotFound
		}
		return nil, err
	}
	if picture.Owner != models.OwnerNone {
		return nil, ErrAlreadySold
	}

	// Replay guard before any external call: a consumed or discarded memo
	// fails here instead of collecting the fee a second time. The memo is
	// bound to the picture it was issued for; completing it against any
	// other picture is rejected.
	pending, err := s.Store.GetPendingOrder(ctx, m)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoPendingOrder
		}
		return nil, err
	}
	if pending.PictureID != pictureID {
		return nil, ErrNoPendingOrder
	}

	// The amount was fixed when the order was created; the payment must
	// carry exactly that.
	ok, err := s.Verifier.Verify(ctx, caller, picture.Seller, pending.Amount, block, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: memo=%d block=%d", ErrVerificationFailed, m, block)
	}

	if err := s.Fees.Collect(ctx, caller, s.OrderFee); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	order, err := s.Store.CompleteOrder(ctx, m, block, buyer)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoPendingOrder):
			return nil, ErrNoPendingOrder
		case errors.Is(err, store.ErrPictureOwned):
			return nil, ErrAlreadySold
		}
		return nil, err
	}
	return order, nil
}

// VerifyPayment is the read-only pre-check exposed to clients; the caller is
// the payment's sender.
func (s *Service) VerifyPayment(ctx context.Context, caller, receiver string, amount, block, m uint64) (bool, error) {
	if caller == "" {
		return false, ErrMissingIdentity
	}
	return s.Verifier.Verify(ctx, caller, receiver, amount, block, m)
}

// AddressFor derives the ledger address a payment to the given identity must
// target.
func (s *Service) AddressFor(identity string) (string, error) {
	return s.Addresses.Derive(identity)
}

// OrderByMemo resolves a memo to its order, pending or completed.
func (s *Service) OrderByMemo(ctx context.Context, m uint64) (*models.Order, error) {
	order, err := s.Store.GetPendingOrder(ctx, m)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	order, err = s.Store.GetOrder(ctx, m)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) OrdersByPayer(ctx context.Context, payer string) ([]*models.Order, error) {
	if payer == "" {
		return nil, ErrMissingIdentity
	}
	return s.Store.ListOrdersByPayer(ctx, payer)
}

// SightingsByMemo lists ledger transfers the worker has matched to the memo,
// letting a client see a delayed payment land before calling CompleteOrder.
func (s *Service) SightingsByMemo(ctx context.Context, m uint64) ([]*models.PaymentSighting, error) {
	return s.Store.ListSightings(ctx, m)
}
