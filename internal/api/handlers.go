package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/generate"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
	"github.com/dotmjsc/pwl-editor/internal/waveformservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *waveformservice.Service
	ops *Ops
}

// NewHandler creates a new Handler.
func NewHandler(svc *waveformservice.Service, ops *Ops) *Handler {
	return &Handler{svc: svc, ops: ops}
}

// waveformPath extracts the file path from the URL (everything after
// /api/waveforms/). Supports encoded slashes from OpenAPI clients
// (e.g. clocks%2Fdiv2.pwl).
func waveformPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListWaveforms handles GET /api/waveforms.
//
//	@Summary		List waveforms with optional pagination and filtering
//	@Tags			waveforms
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			format	query		string	false	"Filter by time format"	Enums(relative, absolute, mixed)
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, duration, path)
//	@Success		200		{object}	WaveformListResponse
//	@Security		BearerAuth
//	@Router			/waveforms [get]
func (h *Handler) ListWaveforms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	format := q.Get("format")
	sort := q.Get("sort")

	items, total, err := h.svc.ListWaveforms(r.Context(), limit, offset, format, sort)
	if err != nil {
		slog.Error("list waveforms failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"waveforms": items,
		"total":     total,
	})
}

// GetWaveform handles GET /api/waveforms/*.
//
//	@Summary		Get a single waveform by path
//	@Tags			waveforms
//	@Produce		json
//	@Param			path	path		string	true	"Waveform path"
//	@Success		200		{object}	WaveformDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waveforms/{path} [get]
func (h *Handler) GetWaveform(w http.ResponseWriter, r *http.Request) {
	path := waveformPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	wf, err := h.svc.GetWaveform(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get waveform failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// CreateWaveform handles POST /api/waveforms.
//
//	@Summary		Create a new waveform file
//	@Tags			waveforms
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateWaveformRequest	true	"Waveform to create"
//	@Success		201		{object}	WaveformDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waveforms [post]
func (h *Handler) CreateWaveform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateWaveformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	wf, err := h.svc.CreateWaveform(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		var parseErr *pwl.ParseError
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("waveform already exists"))
		case errors.As(err, &parseErr):
			writeJSON(w, http.StatusBadRequest, errorBody(parseErr.Error()))
		default:
			slog.Error("create waveform failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

// UpdateWaveform handles PUT /api/waveforms/*.
//
//	@Summary		Update a waveform with optimistic concurrency
//	@Tags			waveforms
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Waveform path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body	body		UpdateWaveformRequest	true	"Updated content"
//	@Success		200		{object}	WaveformDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waveforms/{path} [put]
func (h *Handler) UpdateWaveform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := waveformPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req UpdateWaveformRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	wf, err := h.svc.UpdateWaveform(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		var parseErr *pwl.ParseError
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		case errors.As(err, &parseErr):
			writeJSON(w, http.StatusBadRequest, errorBody(parseErr.Error()))
		default:
			slog.Error("update waveform failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// DeleteWaveform handles DELETE /api/waveforms/*.
//
//	@Summary		Delete a waveform
//	@Tags			waveforms
//	@Param			path	path	string	true	"Waveform path"
//	@Success		204		"Waveform deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waveforms/{path} [delete]
func (h *Handler) DeleteWaveform(w http.ResponseWriter, r *http.Request) {
	path := waveformPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteWaveform(r.Context(), path); err != nil {
		slog.Error("delete waveform failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across waveform files
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// writeOpsError maps operation failures to HTTP responses. Anything the
// caller can fix (bad document text, bad parameters) is a 400.
func writeOpsError(w http.ResponseWriter, op string, err error) {
	var parseErr *pwl.ParseError
	var valErr *generate.ValidationError
	switch {
	case errors.As(err, &parseErr),
		errors.As(err, &valErr),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrInvalidParameter):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Analyze handles POST /api/ops/analyze.
//
//	@Summary		Scan a document for duplicate timestamps and time reversals
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AnalyzeRequest	true	"Document to scan"
//	@Success		200		{object}	AnalyzeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	issues, err := h.ops.Analyze(req.Text, req.TimeEpsilon)
	if err != nil {
		writeOpsError(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Issues: issues, Clean: issues.Empty()})
}

// Repair handles POST /api/ops/repair.
//
//	@Summary		Fix duplicate timestamps and time reversals in a document
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RepairRequest	true	"Document and repair knobs"
//	@Success		200		{object}	RepairResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/repair [post]
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	var req RepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	text, err := h.ops.Repair(req.Text, req.repairParams())
	if err != nil {
		writeOpsError(w, "repair", err)
		return
	}
	writeJSON(w, http.StatusOK, RepairResponse{Text: text})
}

// Generate handles POST /api/ops/generate/{shape}.
//
//	@Summary		Synthesize a square, triangle, or saw waveform
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			shape	path		string			true	"Waveform shape"	Enums(square, triangle, saw)
//	@Param			body	body		GenerateRequest	true	"Generator parameters"
//	@Success		200		{object}	GenerateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/generate/{shape} [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	shape := chi.URLParam(r, "shape")
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	text, warnings, err := h.ops.Generate(shape, req)
	if err != nil {
		// Every generate failure is a caller problem: unknown shape,
		// missing config, invalid parameters, or unparseable base text.
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Text: text, Warnings: warnings})
}

// Insert handles POST /api/ops/insert.
//
//	@Summary		Insert a suggested point above or below an index
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InsertRequest	true	"Document, index, and position"
//	@Success		200		{object}	InsertResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/insert [post]
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	text, index, err := h.ops.Insert(req.Text, req.Index, req.Position)
	if err != nil {
		writeOpsError(w, "insert", err)
		return
	}
	writeJSON(w, http.StatusOK, InsertResponse{Text: text, Index: index})
}

// Select handles POST /api/ops/select.
//
//	@Summary		Select points by pixel click or data-space box
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectRequest	true	"Document, viewport, and selection shape"
//	@Success		200		{object}	SelectResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/select [post]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	indices, err := h.ops.Select(req)
	if err != nil {
		writeOpsError(w, "select", err)
		return
	}
	writeJSON(w, http.StatusOK, SelectResponse{Indices: indices})
}

// Convert handles POST /api/ops/convert.
//
//	@Summary		Convert a document's time mode or number notation
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Document and conversion targets"
//	@Success		200		{object}	ConvertResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	text, err := h.ops.Convert(req)
	if err != nil {
		writeOpsError(w, "convert", err)
		return
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Text: text})
}
