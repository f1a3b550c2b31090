package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
	"github.com/dotmjsc/pwl-editor/internal/waveformservice"
)

// maxSampleRows caps CSV exports so a tiny timestep cannot produce an
// unbounded response.
const maxSampleRows = 1 << 20

// SamplesHandler exports discretized waveform samples as CSV.
type SamplesHandler struct {
	svc *waveformservice.Service
}

// NewSamplesHandler creates a handler backed by the waveform service.
func NewSamplesHandler(svc *waveformservice.Service) *SamplesHandler {
	return &SamplesHandler{svc: svc}
}

// Export handles GET /api/samples?path=...&timestep=...
//
//	@Summary		Export a waveform as discretized CSV samples
//	@Tags			samples
//	@Produce		text/csv
//	@Param			path		query	string	true	"Waveform path"
//	@Param			timestep	query	number	false	"Sample interval in seconds"
//	@Success		200	"CSV with time,value rows"
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/samples [get]
func (h *SamplesHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filePath := q.Get("path")
	if filePath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}

	wf, err := h.svc.GetWaveform(r.Context(), filePath)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	doc, err := pwl.ParseText(wf.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	timestep := doc.Timestep
	if raw := q.Get("timestep"); raw != "" {
		timestep, err = strconv.ParseFloat(raw, 64)
		if err != nil || timestep <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("timestep must be a positive number"))
			return
		}
	}

	times, values, err := doc.Discretize(timestep)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if len(times) > maxSampleRows {
		writeJSON(w, http.StatusBadRequest, errorBody("timestep too small for waveform duration"))
		return
	}

	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+base+`.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"time", "value"})
	for i := range times {
		_ = cw.Write([]string{
			strconv.FormatFloat(times[i], 'g', -1, 64),
			strconv.FormatFloat(values[i], 'g', -1, 64),
		})
	}
	cw.Flush()
}
