package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
)

// OwnerNone is the sentinel a picture carries until its first (and only)
// completed order assigns a real owner.
const OwnerNone = "unowned"

type Picture struct {
	ID         string
	Caption    string
	PictureURL string
	Seller     string
	Price      uint64
	LikeCount  int32
	Owner      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Like struct {
	ID        string
	PictureID string
	UserID    string
	CreatedAt time.Time
}

// Order is both the pending and the completed shape: a pending order has
// PaidAtBlock unset, a completed one carries the block index of the verified
// ledger transfer. Keyed by memo in both tables.
type Order struct {
	Memo        uint64
	PictureID   string
	Status      OrderStatus
	Amount      uint64
	Payer       string
	PaidAtBlock *uint64
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentSighting is a ledger transfer observed by the worker whose memo
// matches a pending order. Sightings are an audit trail; they never complete
// an order by themselves.
type PaymentSighting struct {
	Memo        uint64
	BlockIndex  uint64
	FromAddress string
	ToAddress   string
	Amount      uint64
	SeenAt      time.Time
}
