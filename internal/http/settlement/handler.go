package settlement

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultName     = "liquidacion.txt"
)

type Handler struct {
	importSvc     *importer.Service
	settlementSvc *settlement.Service
	exportSvc     *export.Service
	maxBytes      int64
}

func NewHandler(importSvc *importer.Service, settlementSvc *settlement.Service, exportSvc *export.Service, maxBytes int64) *Handler {
	return &Handler{
		importSvc:     importSvc,
		settlementSvc: settlementSvc,
		exportSvc:     exportSvc,
		maxBytes:      maxBytes,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.process)
	r.Get("/", h.list)
	r.Delete("/", h.clear)
	r.Get("/{id}", h.get)
	r.Get("/{id}/workbook", h.workbook)
	r.Get("/{id}/detail.csv", h.detailCSV)
}

// process accepts the report either as a multipart "file" field or as the
// raw request body.
func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	format, err := importer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, name, err := h.report(w, r)
	if err != nil {
		http.Error(w, err.Error(), inputStatus(err))
		return
	}
	defer body.Close()

	doc, err := h.importSvc.Import(format, body)
	if err != nil && !errors.Is(err, settlement.ErrUnidentified) {
		http.Error(w, err.Error(), inputStatus(err))
		return
	}

	entry, err := h.settlementSvc.Record(r.Context(), name, doc)
	if errors.Is(err, settlement.ErrUnidentified) {
		slog.Info("unidentified settlement", "name", name, "format", doc.Format)
		writeJSON(w, http.StatusUnprocessableEntity, unidentifiedResponse{
			Error:    "no se pudo identificar la liquidación: falta número de liquidación y fecha de pago",
			Document: doc,
		})

		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toDetailResponse(entry))
}

// inputStatus maps a failure to read or parse the upload to a status code.
func inputStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusBadRequest
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = defaultName
		}

		return r.Body, name, nil
	}

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		return nil, "", fmt.Errorf("failed to parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New("file field is required")
	}

	return file, header.Filename, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.settlementSvc.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(entries))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.settlementSvc.Get(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDetailResponse(entry))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.settlementSvc.Clear(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) workbook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer

	entry, err := h.exportSvc.WriteWorkbook(r.Context(), id, &buf)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(entry)))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write workbook", "error", err)
	}
}

func (h *Handler) detailCSV(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer

	if err := h.exportSvc.WriteDetailCSV(r.Context(), id, &buf); err != nil {
		if errors.Is(err, export.ErrNoDetails) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		writeLookupError(w, err)

		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write csv", "error", err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, settlement.ErrNotFound) {
		http.Error(w, "settlement not found", http.StatusNotFound)
		return
	}

	slog.Error("failed to load settlement", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
