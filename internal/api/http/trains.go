package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/service"
)

type SeatRequest struct {
	Number      string  `json:"number" validate:"required"`
	Class       string  `json:"class" validate:"required,oneof=economy business first"`
	Price       float64 `json:"price" validate:"gte=0"`
	IsAvailable *bool   `json:"is_available"`
}

type TrainRequest struct {
	Name          string        `json:"name" validate:"required"`
	From          string        `json:"from" validate:"required"`
	To            string        `json:"to" validate:"required"`
	DepartureTime time.Time     `json:"departure_time"`
	ArrivalTime   time.Time     `json:"arrival_time"`
	BasePrice     float64       `json:"base_price" validate:"gte=0"`
	Seats         []SeatRequest `json:"seats" validate:"required,min=1,dive"`
	Status        string        `json:"status" validate:"omitempty,oneof=scheduled cancelled completed"`
}

func (req TrainRequest) toInput() service.TrainInput {
	seats := make([]service.SeatInput, 0, len(req.Seats))
	for _, s := range req.Seats {
		seats = append(seats, service.SeatInput{
			Number:      s.Number,
			Class:       repository.SeatClass(s.Class),
			Price:       s.Price,
			IsAvailable: s.IsAvailable,
		})
	}
	return service.TrainInput{
		Name:          req.Name,
		From:          req.From,
		To:            req.To,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		BasePrice:     req.BasePrice,
		Seats:         seats,
		Status:        repository.TrainStatus(req.Status),
	}
}

type SeatResponse struct {
	Number      string  `json:"number"`
	Class       string  `json:"class"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

type TrainResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	From          string         `json:"from"`
	To            string         `json:"to"`
	DepartureTime time.Time      `json:"departure_time"`
	ArrivalTime   time.Time      `json:"arrival_time"`
	BasePrice     float64        `json:"base_price"`
	Seats         []SeatResponse `json:"seats"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toTrainResponse(t repository.Train) TrainResponse {
	seats := make([]SeatResponse, 0, len(t.Seats))
	for _, s := range t.Seats {
		seats = append(seats, SeatResponse{
			Number:      s.Number,
			Class:       string(s.Class),
			Price:       s.Price,
			IsAvailable: s.IsAvailable,
		})
	}
	return TrainResponse{
		ID:            t.ID,
		Name:          t.Name,
		From:          t.From,
		To:            t.To,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		BasePrice:     t.BasePrice,
		Seats:         seats,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SearchTrains handles GET /trains?from=&to=&date=&class=&min_price=&max_price=.
func (h *Handler) SearchTrains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, err := parsePrice(q.Get("min_price"))
	if err != nil {
		h.badRequest(w, r, "min_price must be a number")
		return
	}
	maxPrice, err := parsePrice(q.Get("max_price"))
	if err != nil {
		h.badRequest(w, r, "max_price must be a number")
		return
	}

	trains, err := h.trains.Search(r.Context(), service.SearchInput{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Date:     q.Get("date"),
		Class:    q.Get("class"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]TrainResponse, 0, len(trains))
	for _, t := range trains {
		resp = append(resp, toTrainResponse(t))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// GetTrain handles GET /trains/{id}.
func (h *Handler) GetTrain(w http.ResponseWriter, r *http.Request) {
	train, err := h.trains.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toTrainResponse(train))
}

// CreateTrain handles POST /trains.
func (h *Handler) CreateTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !h.decode(w, r, &req) {
		return
	}
	train, err := h.trains.Create(r.Context(), identity(r), req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, toTrainResponse(train))
}

// UpdateTrain handles PUT /trains/{id}.
func (h *Handler) UpdateTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !h.decode(w, r, &req) {
		return
	}
	train, err := h.trains.Update(r.Context(), identity(r), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toTrainResponse(train))
}

// DeleteTrain handles DELETE /trains/{id}.
func (h *Handler) DeleteTrain(w http.ResponseWriter, r *http.Request) {
	if err := h.trains.Delete(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Message: "train deleted"})
}
