package models

import (
	"slices"
	"time"
)

const (
	InvoiceDraft    = "draft"
	InvoiceSent     = "sent"
	InvoicePaid     = "paid"
	InvoiceCanceled = "canceled"
)

var InvoiceStatuses = []string{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceCanceled}

func IsInvoiceStatus(s string) bool { return slices.Contains(InvoiceStatuses, s) }

type Invoice struct {
	ID           string
	TenantID     string
	CustomerName string
	PeriodFrom   time.Time
	PeriodTo     time.Time
	AmountJPY    int64
	Memo         *string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
