// Package catalog covers the supporting records around settlement: pictures,
// users, and likes. Plain keyed storage with uniqueness checks only.
package catalog

import (
	"context"
	"errors"

	"PictureMarket/internal/models"
	"PictureMarket/internal/store"

	"github.com/google/uuid"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyLiked   = errors.New("user has already liked this picture")
)

type Store interface {
	CreatePicture(ctx context.Context, picture *models.Picture) error
	GetPicture(ctx context.Context, id string) (*models.Picture, error)
	ListPictures(ctx context.Context) ([]*models.Picture, error)
	UpdatePictureDetails(ctx context.Context, id, caption, pictureURL string) (*models.Picture, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	InsertLike(ctx context.Context, like *models.Like) error
}

type Service struct {
	Store Store
}

type PicturePayload struct {
	Caption    string
	PictureURL string
	Price      uint64
}

func (s *Service) AddPicture(ctx context.Context, seller string, payload PicturePayload) (*models.Picture, error) {
	if seller == "" || payload.Caption == "" || payload.PictureURL == "" {
		return nil, ErrInvalidPayload
	}

	picture := &models.Picture{
		ID:         uuid.NewString(),
		Caption:    payload.Caption,
		PictureURL: payload.PictureURL,
		Seller:     seller,
		Price:      payload.Price,
		Owner:      models.OwnerNone,
	}
	if err := s.Store.CreatePicture(ctx, picture); err != nil {
		return nil, err
	}
	return picture, nil
}

func (s *Service) GetPicture(ctx context.Context, id string) (*models.Picture, error) {
	picture, err := s.Store.GetPicture(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return picture, nil
}

func (s *Service) ListPictures(ctx context.Context) ([]*models.Picture, error) {
	return s.Store.ListPictures(ctx)
}

// UpdatePicture edits caption and image URL. Price and seller are immutable
// once listed.
func (s *Service) UpdatePicture(ctx context.Context, id, caption, pictureURL string) (*models.Picture, error) {
	if id == "" || caption == "" || pictureURL == "" {
		return nil, ErrInvalidPayload
	}
	picture, err := s.Store.UpdatePictureDetails(ctx, id, caption, pictureURL)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return picture, nil
}

func (s *Service) AddUser(ctx context.Context, name string) (*models.User, error) {
	if name == "" {
		return nil, ErrInvalidPayload
	}
	user := &models.User{ID: uuid.NewString(), Name: name}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Store.ListUsers(ctx)
}

func (s *Service) LikePicture(ctx context.Context, pictureID, userID string) (*models.Like, error) {
	if pictureID == "" || userID == "" {
		return nil, ErrInvalidPayload
	}

	like := &models.Like{ID: uuid.NewString(), PictureID: pictureID, UserID: userID}
	if err := s.Store.InsertLike(ctx, like); err != nil {
		switch {
		case errors.Is(err, store.ErrExists):
			return nil, ErrAlreadyLiked
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return like, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
