package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ReceiptLine is one row of the totals block of a receipt
type ReceiptLine struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
	// Deduction marks rows subtracted from the subtotal
	Deduction bool `json:"deduction,omitempty"`
}

// Receipt is the purchase detail shown to the buyer after checkout
type Receipt struct {
	IssuedAt time.Time         `json:"issued_at"`
	Contact  string            `json:"contact,omitempty"`
	Items    []models.CartLine `json:"items"`
	Lines    []ReceiptLine     `json:"lines"`
	Total    int64             `json:"total"`
}

// NewReceipt builds the receipt for a quote
func NewReceipt(q pricing.Quote, contact string, at time.Time) Receipt {
	lines := []ReceiptLine{{Label: "Subtotal", Amount: q.Subtotal}}
	if q.Benefits.BdayDisc > 0 {
		lines = append(lines, ReceiptLine{Label: labelOr(q.Benefits.BdayLabel, "Beneficio cumpleaños"), Amount: q.Benefits.BdayDisc, Deduction: true})
	}
	if q.Benefits.UserDisc > 0 {
		lines = append(lines, ReceiptLine{Label: labelOr(q.Benefits.UserLabel, "Descuento usuario"), Amount: q.Benefits.UserDisc, Deduction: true})
	}
	if q.Coupon.Valid && q.Coupon.Discount > 0 {
		label := labelOr(q.Coupon.Label, "Cupón")
		if q.Coupon.Code != "" {
			label += " (" + q.Coupon.Code + ")"
		}
		lines = append(lines, ReceiptLine{Label: label, Amount: q.Coupon.Discount, Deduction: true})
	}
	lines = append(lines, ReceiptLine{Label: "Envío", Amount: q.Shipping})

	return Receipt{
		IssuedAt: at,
		Contact:  strings.TrimSpace(contact),
		Items:    q.Items,
		Lines:    lines,
		Total:    q.Total,
	}
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}

// Text renders the receipt as plain text
func (r Receipt) Text() string {
	var b strings.Builder
	b.WriteString("Detalle de la compra\n")
	fmt.Fprintf(&b, "Fecha: %s", r.IssuedAt.Format("02-01-2006 15:04"))
	if r.Contact != "" {
		fmt.Fprintf(&b, " | Cliente: %s", r.Contact)
	}
	b.WriteString("\n\n")

	for _, it := range r.Items {
		fmt.Fprintf(&b, "%-40s %10s x%-3d %12s\n", it.Product.Name, FormatCLP(it.Product.Price), it.Qty, FormatCLP(it.Subtotal))
		if it.Message != "" {
			fmt.Fprintf(&b, "  Mensaje: %s\n", it.Message)
		}
	}
	b.WriteString("\n")
	for _, l := range r.Lines {
		amount := FormatCLP(l.Amount)
		if l.Deduction {
			amount = "- " + amount
		}
		fmt.Fprintf(&b, "%-40s %12s\n", l.Label, amount)
	}
	fmt.Fprintf(&b, "%-40s %12s\n", "Total", FormatCLP(r.Total))
	return b.String()
}

// FormatCLP formats an amount in Chilean pesos, e.g. $55.000
func FormatCLP(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

// ReceiptPresenter shows a receipt to the buyer
type ReceiptPresenter interface {
	Present(ctx context.Context, r Receipt) error
}

// LogReceiptPresenter writes receipts to the structured log
type LogReceiptPresenter struct {
	logger *zap.Logger
}

// NewLogReceiptPresenter creates a presenter backed by the global logger
func NewLogReceiptPresenter() *LogReceiptPresenter {
	return &LogReceiptPresenter{logger: util.GetLogger()}
}

func (p *LogReceiptPresenter) Present(_ context.Context, r Receipt) error {
	p.logger.Info("Receipt issued",
		zap.String("contact", r.Contact),
		zap.Int("items", len(r.Items)),
		zap.Int64("total", r.Total))
	p.logger.Debug(r.Text())
	return nil
}
