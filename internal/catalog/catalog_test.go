package catalog

import (
	"context"
	"testing"

	"PictureMarket/internal/models"
	"PictureMarket/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pictures map[string]*models.Picture
	users    map[string]*models.User
	likes    map[string]bool // pictureID/userID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pictures: map[string]*models.Picture{},
		users:    map[string]*models.User{},
		likes:    map[string]bool{},
	}
}

func (f *fakeStore) CreatePicture(ctx context.Context, picture *models.Picture) error {
	cp := *picture
	f.pictures[picture.ID] = &cp
	return nil
}

func (f *fakeStore) GetPicture(ctx context.Context, id string) (*models.Picture, error) {
	p, ok := f.pictures[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListPictures(ctx context.Context) ([]*models.Picture, error) {
	var out []*models.Picture
	for _, p := range f.pictures {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) UpdatePictureDetails(ctx context.Context, id, caption, pictureURL string) (*models.Picture, error) {
	p, ok := f.pictures[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Caption = caption
	p.PictureURL = pictureURL
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) InsertLike(ctx context.Context, like *models.Like) error {
	key := like.PictureID + "/" + like.UserID
	if f.likes[key] {
		return store.ErrExists
	}
	p, ok := f.pictures[like.PictureID]
	if !ok {
		return store.ErrNotFound
	}
	f.likes[key] = true
	p.LikeCount++
	return nil
}

func TestAddPicture(t *testing.T) {
	st := newFakeStore()
	svc := &Service{Store: st}

	picture, err := svc.AddPicture(context.Background(), "seller-1", PicturePayload{
		Caption:    "sunset",
		PictureURL: "https://img.example/1.png",
		Price:      100,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, picture.ID)
	assert.Equal(t, "seller-1", picture.Seller)
	assert.Equal(t, models.OwnerNone, picture.Owner)
	assert.Equal(t, uint64(100), picture.Price)
	assert.Equal(t, int32(0), picture.LikeCount)
}

func TestAddPictureInvalidPayload(t *testing.T) {
	svc := &Service{Store: newFakeStore()}

	_, err := svc.AddPicture(context.Background(), "seller-1", PicturePayload{})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = svc.AddPicture(context.Background(), "", PicturePayload{Caption: "x", PictureURL: "y"})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestUpdatePictureKeepsPrice(t *testing.T) {
	st := newFakeStore()
	svc := &Service{Store: st}

	picture, err := svc.AddPicture(context.Background(), "seller-1", PicturePayload{
		Caption:    "sunset",
		PictureURL: "https://img.example/1.png",
		Price:      100,
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePicture(context.Background(), picture.ID, "dawn", "https://img.example/2.png")
	require.NoError(t, err)
	assert.Equal(t, "dawn", updated.Caption)
	assert.Equal(t, uint64(100), updated.Price)

	_, err = svc.UpdatePicture(context.Background(), "missing", "a", "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAndGetUser(t *testing.T) {
	svc := &Service{Store: newFakeStore()}

	user, err := svc.AddUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	_, err = svc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestLikePicture(t *testing.T) {
	st := newFakeStore()
	svc := &Service{Store: st}

	picture, err := svc.AddPicture(context.Background(), "seller-1", PicturePayload{
		Caption:    "sunset",
		PictureURL: "https://img.example/1.png",
		Price:      100,
	})
	require.NoError(t, err)

	_, err = svc.LikePicture(context.Background(), picture.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), st.pictures[picture.ID].LikeCount)

	_, err = svc.LikePicture(context.Background(), picture.ID, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.Equal(t, int32(1), st.pictures[picture.ID].LikeCount)

	_, err = svc.LikePicture(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
