package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

type entryResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Format      settlement.Format    `json:"format"`
	Valid       bool                 `json:"valid"`
	Title       string               `json:"title"`
	PaymentDate string               `json:"payment_date,omitempty"`
	Amount      decimal.Decimal      `json:"amount"`
	Skipped     int                  `json:"skipped"`
	FileName    string               `json:"file_name"`
	ProcessedAt time.Time            `json:"processed_at"`
	Document    *settlement.Document `json:"document,omitempty"`
}

type unidentifiedResponse struct {
	Error    string              `json:"error"`
	Document settlement.Document `json:"document"`
}

func toResponse(e *settlement.Entry) entryResponse {
	title, amount := export.Headline(e)

	return entryResponse{
		ID:          e.ID,
		Name:        e.Name,
		Format:      e.Document.Format,
		Valid:       e.Valid,
		Title:       title,
		PaymentDate: e.Document.PaymentDate(),
		Amount:      amount,
		Skipped:     e.Document.Skipped(),
		FileName:    export.FileName(e),
		ProcessedAt: e.ProcessedAt,
	}
}

func toDetailResponse(e *settlement.Entry) entryResponse {
	resp := toResponse(e)
	resp.Document = &e.Document

	return resp
}

func toResponseList(entries []*settlement.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toResponse(e)
	}

	return resp
}
