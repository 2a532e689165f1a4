package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"PictureMarket/internal/catalog"
	"PictureMarket/internal/models"
	"PictureMarket/internal/settlement"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Catalog *catalog.Service
	Orders  *settlement.Service
}

func NewHandler(catalogSvc *catalog.Service, orders *settlement.Service) *Handler {
	return &Handler{Catalog: catalogSvc, Orders: orders}
}

type picturePayload struct {
	Caption    string `json:"caption"`
	PictureURL string `json:"pictureUrl"`
	Price      uint64 `json:"price"`
}

type pictureResponse struct {
	ID         string `json:"id"`
	Caption    string `json:"caption"`
	PictureURL string `json:"pictureUrl"`
	Seller     string `json:"seller"`
	Price      uint64 `json:"price"`
	LikeCount  int32  `json:"likeCount"`
	Owner      string `json:"owner"`
}

type orderResponse struct {
	Memo        string  `json:"memo"`
	PictureID   string  `json:"pictureId"`
	Status      string  `json:"status"`
	Amount      uint64  `json:"amount"`
	Payer       string  `json:"payer"`
	PaidAtBlock *uint64 `json:"paidAtBlock,omitempty"`
	ExpiresAt   string  `json:"expiresAt,omitempty"`
}

type createOrderResponse struct {
	orderResponse
	Seller        string `json:"seller"`
	SellerAddress string `json:"sellerAddress"`
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type likeResponse struct {
	ID        string `json:"id"`
	PictureID string `json:"pictureId"`
	UserID    string `json:"userId"`
}

type completeOrderRequest struct {
	PictureID string `json:"pictureId"`
	Block     uint64 `json:"block"`
	Memo      string `json:"memo"`
	Buyer     string `json:"buyer"`
}

func (h *Handler) AddPicture(w http.ResponseWriter, r *http.Request) {
	var req picturePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	picture, err := h.Catalog.AddPicture(r.Context(), identity(r), catalog.PicturePayload{
		Caption:    req.Caption,
		PictureURL: req.PictureURL,
		Price:      req.Price,
	})
	if err != nil {
		h.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPictureResponse(picture))
}

func (h *Handler) GetPicture(w http.ResponseWriter, r *http.Request) {
	picture, err := h.Catalog.GetPicture(r.Context(), chi.URLParam(r, "pictureId"))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPictureResponse(picture))
}

func (h *Handler) ListPictures(w http.ResponseWriter, r *http.Request) {
	pictures, err := h.Catalog.ListPictures(r.Context())
	if err != nil {
		h.catalogError(w, err)
		return
	}
	out := make([]pictureResponse, 0, len(pictures))
	for _, p := range pictures {
		out = append(out, toPictureResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdatePicture(w http.ResponseWriter, r *http.Request) {
	var req picturePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	picture, err := h.Catalog.UpdatePicture(r.Context(), chi.URLParam(r, "pictureId"), req.Caption, req.PictureURL)
	if err != nil {
		h.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPictureResponse(picture))
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	user, err := h.Catalog.AddUser(r.Context(), req.Name)
	if err != nil {
		h.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Catalog.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Catalog.ListUsers(r.Context())
	if err != nil {
		h.catalogError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, Name: u.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) LikePicture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PictureID string `json:"pictureId"`
		UserID    string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	like, err := h.Catalog.LikePicture(r.Context(), req.PictureID, req.UserID)
	if err != nil {
		h.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{ID: like.ID, PictureID: like.PictureID, UserID: like.UserID})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PictureID string `json:"pictureId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := h.Orders.CreateOrder(r.Context(), req.PictureID, identity(r))
	if err != nil {
		h.orderError(w, err)
		return
	}

	picture, err := h.Catalog.GetPicture(r.Context(), order.PictureID)
	if err != nil {
		h.catalogError(w, err)
		return
	}
	sellerAddr, err := h.Orders.AddressFor(picture.Seller)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "derive seller address failed")
		return
	}

	writeJSON(w, http.StatusOK, createOrderResponse{
		orderResponse: toOrderResponse(order),
		Seller:        picture.Seller,
		SellerAddress: sellerAddr,
	})
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req completeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	m, err := strconv.ParseUint(req.Memo, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memo")
		return
	}
	if req.Buyer == "" {
		writeError(w, http.StatusBadRequest, "missing buyer")
		return
	}

	order, err := h.Orders.CompleteOrder(r.Context(), req.PictureID, req.Block, m, req.Buyer, identity(r))
	if err != nil {
		h.orderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	m, err := strconv.ParseUint(chi.URLParam(r, "memo"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memo")
		return
	}

	order, err := h.Orders.OrderByMemo(r.Context(), m)
	if err != nil {
		h.orderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.OrdersByPayer(r.Context(), identity(r))
	if err != nil {
		h.orderError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListSightings(w http.ResponseWriter, r *http.Request) {
	m, err := strconv.ParseUint(chi.URLParam(r, "memo"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memo")
		return
	}

	sightings, err := h.Orders.SightingsByMemo(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list sightings failed")
		return
	}

	type sightingResponse struct {
		Memo        string `json:"memo"`
		BlockIndex  uint64 `json:"blockIndex"`
		FromAddress string `json:"fromAddress"`
		ToAddress   string `json:"toAddress"`
		Amount      uint64 `json:"amount"`
		SeenAt      string `json:"seenAt"`
	}
	out := make([]sightingResponse, 0, len(sightings))
	for _, s := range sightings {
		out = append(out, sightingResponse{
			Memo:        strconv.FormatUint(s.Memo, 10),
			BlockIndex:  s.BlockIndex,
			FromAddress: s.FromAddress,
			ToAddress:   s.ToAddress,
			Amount:      s.Amount,
			SeenAt:      s.SeenAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	receiver := q.Get("receiver")
	amount, err1 := strconv.ParseUint(q.Get("amount"), 10, 64)
	block, err2 := strconv.ParseUint(q.Get("block"), 10, 64)
	m, err3 := strconv.ParseUint(q.Get("memo"), 10, 64)
	if receiver == "" || err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "receiver, amount, block and memo are required")
		return
	}

	verified, err := h.Orders.VerifyPayment(r.Context(), identity(r), receiver, amount, block, m)
	if err != nil {
		h.orderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}

func (h *Handler) GetAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := h.Orders.AddressFor(chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot derive address")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": addr})
}

func (h *Handler) catalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrAlreadyLiked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) orderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settlement.ErrMissingIdentity):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, settlement.ErrPictureNotFound),
		errors.Is(err, settlement.ErrOrderNotFound),
		errors.Is(err, settlement.ErrNoPendingOrder),
		errors.Is(err, settlement.ErrFeeNotConfigured):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, settlement.ErrAlreadySold),
		errors.Is(err, settlement.ErrMemoCollision):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, settlement.ErrVerificationFailed):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, settlement.ErrPaymentFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func identity(r *http.Request) string {
	return r.Header.Get("X-Identity")
}

func toPictureResponse(p *models.Picture) pictureResponse {
	return pictureResponse{
		ID:         p.ID,
		Caption:    p.Caption,
		PictureURL: p.PictureURL,
		Seller:     p.Seller,
		Price:      p.Price,
		LikeCount:  p.LikeCount,
		Owner:      p.Owner,
	}
}

func toOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		// Memo is serialized as a string: 63-bit values overflow JSON
		// number consumers.
		Memo:        strconv.FormatUint(order.Memo, 10),
		PictureID:   order.PictureID,
		Status:      string(order.Status),
		Amount:      order.Amount,
		Payer:       order.Payer,
		PaidAtBlock: order.PaidAtBlock,
	}
	if order.Status == models.OrderPending && !order.ExpiresAt.IsZero() {
		resp.ExpiresAt = order.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}
