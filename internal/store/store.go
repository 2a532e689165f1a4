package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"PictureMarket/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrExists         = errors.New("already exists")
	ErrNoPendingOrder = errors.New("no pending order")
	ErrPictureOwned   = errors.New("picture already owned")
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) CreatePicture(ctx context.Context, picture *models.Picture) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO pictures (id, caption, picture_url, seller, price, like_count, owner)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		picture.ID,
		picture.Caption,
		picture.PictureURL,
		picture.Seller,
		int64(picture.Price),
		picture.LikeCount,
		picture.Owner,
	)
	return err
}

func (s *Store) GetPicture(ctx context.Context, id string) (*models.Picture, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, caption, picture_url, seller, price, like_count, owner, created_at, updated_at
		FROM pictures WHERE id=$1
	`, id)
	return scanPicture(row)
}

func (s *Store) ListPictures(ctx context.Context) ([]*models.Picture, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, caption, picture_url, seller, price, like_count, owner, created_at, updated_at
		FROM pictures ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pictures []*models.Picture
	for rows.Next() {
		p, err := scanPicture(rows)
		if err != nil {
			return nil, err
		}
		pictures = append(pictures, p)
	}
	return pictures, rows.Err()
}

// UpdatePictureDetails changes caption and image URL only. Price and seller
// are immutable after listing.
func (s *Store) UpdatePictureDetails(ctx context.Context, id, caption, pictureURL string) (*models.Picture, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE pictures
		SET caption=$2, picture_url=$3, updated_at=now()
		WHERE id=$1
		RETURNING id, caption, picture_url, seller, price, like_count, owner, created_at, updated_at
	`, id, caption, pictureURL)
	return scanPicture(row)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO users (id, name) VALUES ($1,$2)`, user.ID, user.Name)
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, name, created_at FROM users WHERE id=$1`, id)
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.CreatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// InsertLike records a like and bumps the picture's counter in one
// transaction. A second like from the same user is ErrExists.
func (s *Store) InsertLike(ctx context.Context, like *models.Like) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO likes (id, picture_id, user_id) VALUES ($1,$2,$3)
	`, like.ID, like.PictureID, like.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}
		return err
	}

	res, err := tx.Exec(ctx, `
		UPDATE pictures SET like_count=like_count+1, updated_at=now() WHERE id=$1
	`, like.PictureID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertPendingOrder(ctx context.Context, order *models.Order) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO pending_orders (memo, picture_id, amount, payer, expires_at)
		VALUES ($1,$2,$3,$4,$5)
	`,
		int64(order.Memo),
		order.PictureID,
		int64(order.Amount),
		order.Payer,
		order.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return ErrExists
	}
	return err
}

func (s *Store) GetPendingOrder(ctx context.Context, memo uint64) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT memo, picture_id, amount, payer, expires_at, created_at
		FROM pending_orders WHERE memo=$1
	`, int64(memo))
	return scanPendingOrder(row)
}

func (s *Store) ListPendingOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT memo, picture_id, amount, payer, expires_at, created_at
		FROM pending_orders ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanPendingOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// CompleteOrder is the settlement commit point: in one transaction it removes
// the pending order by memo, persists it as completed, and flips the picture
// owner away from the unowned sentinel. No observer can see one half without
// the other; a consumed memo always fails here with ErrNoPendingOrder.
func (s *Store) CompleteOrder(ctx context.Context, memo, block uint64, buyer string) (*models.Order, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		DELETE FROM pending_orders WHERE memo=$1
		RETURNING memo, picture_id, amount, payer, expires_at, created_at
	`, int64(memo))
	order, err := scanPendingOrder(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoPendingOrder
		}
		return nil, err
	}

	res, err := tx.Exec(ctx, `
		UPDATE pictures SET owner=$2, updated_at=now() WHERE id=$1 AND owner=$3
	`, order.PictureID, buyer, models.OwnerNone)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		return nil, ErrPictureOwned
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (memo, picture_id, amount, payer, paid_at_block)
		VALUES ($1,$2,$3,$4,$5)
	`, int64(order.Memo), order.PictureID, int64(order.Amount), order.Payer, int64(block))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	order.Status = models.OrderCompleted
	order.PaidAtBlock = &block
	return order, nil
}

// DiscardExpired reaps pending orders past their TTL; a memo consumed by a
// successful completion is already gone from the table, so the reap is a
// no-op for it.
func (s *Store) DiscardExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.Pool.Exec(ctx, `DELETE FROM pending_orders WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (s *Store) GetOrder(ctx context.Context, memo uint64) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT memo, picture_id, amount, payer, paid_at_block, created_at, updated_at
		FROM orders WHERE memo=$1
	`, int64(memo))
	return scanCompletedOrder(row)
}

func (s *Store) ListOrdersByPayer(ctx context.Context, payer string) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT memo, picture_id, amount, payer, paid_at_block, created_at, updated_at
		FROM orders WHERE payer=$1 ORDER BY created_at
	`, payer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanCompletedOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *Store) InsertSighting(ctx context.Context, sighting *models.PaymentSighting) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payment_sightings (memo, block_index, from_address, to_address, amount)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (memo, block_index) DO NOTHING
	`,
		int64(sighting.Memo),
		int64(sighting.BlockIndex),
		sighting.FromAddress,
		sighting.ToAddress,
		int64(sighting.Amount),
	)
	return err
}

func (s *Store) ListSightings(ctx context.Context, memo uint64) ([]*models.PaymentSighting, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT memo, block_index, from_address, to_address, amount, seen_at
		FROM payment_sightings WHERE memo=$1 ORDER BY block_index
	`, int64(memo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sightings []*models.PaymentSighting
	for rows.Next() {
		var sighting models.PaymentSighting
		var m, blockIndex, amount int64
		if err := rows.Scan(&m, &blockIndex, &sighting.FromAddress, &sighting.ToAddress, &amount, &sighting.SeenAt); err != nil {
			return nil, err
		}
		sighting.Memo = uint64(m)
		sighting.BlockIndex = uint64(blockIndex)
		sighting.Amount = uint64(amount)
		sightings = append(sightings, &sighting)
	}
	return sightings, rows.Err()
}

// GetSyncHeight returns the last processed block index, or -1 when no block
// has been processed yet.
func (s *Store) GetSyncHeight(ctx context.Context) (int64, error) {
	row := s.Pool.QueryRow(ctx, "SELECT value FROM sync_state WHERE key='last_processed_block'")
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return -1, nil
		}
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *Store) SetSyncHeight(ctx context.Context, height int64) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO sync_state (key, value)
		VALUES ('last_processed_block', $1)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value
	`, strconv.FormatInt(height, 10))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPicture(row rowScanner) (*models.Picture, error) {
	var picture models.Picture
	var price int64
	err := row.Scan(
		&picture.ID,
		&picture.Caption,
		&picture.PictureURL,
		&picture.Seller,
		&price,
		&picture.LikeCount,
		&picture.Owner,
		&picture.CreatedAt,
		&picture.UpdatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	picture.Price = uint64(price)
	return &picture, nil
}

func scanPendingOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var m, amount int64
	err := row.Scan(&m, &order.PictureID, &amount, &order.Payer, &order.ExpiresAt, &order.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	order.Memo = uint64(m)
	order.Amount = uint64(amount)
	order.Status = models.OrderPending
	return &order, nil
}

func scanCompletedOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var m, amount int64
	var paidAtBlock sql.NullInt64
	err := row.Scan(&m, &order.PictureID, &amount, &order.Payer, &paidAtBlock, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	order.Memo = uint64(m)
	order.Amount = uint64(amount)
	order.Status = models.OrderCompleted
	if paidAtBlock.Valid {
		block := uint64(paidAtBlock.Int64)
		order.PaidAtBlock = &block
	}
	return &order, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
