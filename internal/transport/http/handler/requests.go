package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aidbridge-api/internal/application/request"
	"github.com/aidbridge-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

const multipartMemory = 8 << 20

// RequestHandler handles aid request endpoints.
type RequestHandler struct {
	svc           request.Service
	maxImageBytes int64
}

func NewRequestHandler(svc request.Service, maxImageBytes int64) *RequestHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = 5 * 1024 * 1024
	}
	return &RequestHandler{svc: svc, maxImageBytes: maxImageBytes}
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.RequestFilter{
		Category: domain.Category(q.Get("category")),
		Urgency:  domain.Urgency(q.Get("urgency")),
		Status:   domain.RequestStatus(q.Get("status")),
		Owner:    q.Get("owner"),
		Claimant: q.Get("claimed_by"),
		Cursor:   q.Get("cursor"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}
	page, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var in domain.CreateRequestInput
	if !decodeJSON(w, r, &in) {
		return
	}
	req, err := h.svc.Create(r.Context(), sc, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	req, err := h.svc.Claim(r.Context(), sc, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// AttachImage reads the multipart "image" field.
func (h *RequestHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, &domain.ValidationError{Field: "image", Message: "Image must be less than 5MB"})
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer f.Close()

	req, err := h.svc.AttachImage(r.Context(), sc, chi.URLParam(r, "id"), request.Upload{
		Body:        f,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var radius float64
	if v := r.URL.Query().Get("radius_km"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "radius_km must be a positive number")
			return
		}
		radius = n
	}
	nearby, err := h.svc.Nearby(r.Context(), sc, radius)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope[domain.NearbyRequest]{Data: nearby})
}

func (h *RequestHandler) Map(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.MapPins(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RequestHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(r.Context(), sc)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
