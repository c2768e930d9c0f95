package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hashdb/internal/recordservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recordservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recordservice.Service) *Handler {
	return &Handler{svc: svc}
}

// GetPage handles GET /api/pages/{page} and GET /api/tags/{tag}/pages/{page}.
//
//	@Summary		Get a page of records, newest first
//	@Tags			records
//	@Produce		json
//	@Param			page	path		int		false	"Page number, 0 is the newest"
//	@Param			tag		path		string	false	"Only records with this tag"
//	@Success		200		{object}	PageResponse
//	@Failure		400		{object}	errResponse
//	@Router			/pages/{page} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := chi.URLParam(r, "page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("page must be a non-negative integer"))
			return
		}
		page = n
	}
	res, err := h.svc.Page(r.Context(), page, chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, "get page", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AddHash handles POST /api/hashes.
//
//	@Summary		Add a record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddHashRequest	true	"Record to add"
//	@Success		201		{object}	AddHashResponse
//	@Failure		400		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Router			/hashes [post]
func (h *Handler) AddHash(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req AddHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	added, err := h.svc.AddHash(r.Context(), req)
	if err != nil {
		writeError(w, "add hash", err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// LookupHash handles GET /api/hashes/{hash}.
//
//	@Summary		List every record with a hash
//	@Tags			records
//	@Produce		json
//	@Param			hash	path		string	true	"Content hash"
//	@Success		200		{object}	LookupResponse
//	@Failure		404		{object}	errResponse
//	@Router			/hashes/{hash} [get]
func (h *Handler) LookupHash(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	hits, err := h.svc.LookupHash(r.Context(), hash)
	if err != nil {
		writeError(w, "lookup hash", err)
		return
	}
	writeJSON(w, http.StatusOK, LookupResponse{Hash: hash, Records: hits})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List tags by number of records
//	@Tags			tags
//	@Produce		json
//	@Param			limit	query		int	false	"Max tags"
//	@Success		200		{object}	TagsResponse
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tags, err := h.svc.Tags(r.Context(), limit)
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Status handles GET /api/status.
//
//	@Summary		Database state
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}
