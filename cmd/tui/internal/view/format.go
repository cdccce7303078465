package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
)

const sessionTimeout = 5 * time.Second

// FormatAmount renders an amount in pesos.
func FormatAmount(d decimal.Decimal) string {
	return locale.Pesos(d)
}

// SessionCtx returns a context with a standard timeout for session operations.
func SessionCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sessionTimeout)
}
