package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/imrishuroy/printeasy-orderflow/internal/pricing"
)

// Status is the persisted lifecycle state of an order.
type Status string

// Order statuses
const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// CanTransition allows Pending -> Done and same-state writes. Done never goes back to Pending.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return from == StatusPending && to == StatusDone
}

// Pages-per-sheet values. Informational only.
const (
	OnePagePerSide  = "1 page per side"
	TwoPagesPerSide = "2 pages per side"
)

// Page selection values.
const (
	AllPages    = "All Pages"
	CustomPages = "Custom Pages"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Document is one file to print within an order.
type Document struct {
	DocLink       string  `json:"doc_link" dynamodbav:"doc_link"`
	FileName      string  `json:"file_name,omitempty" dynamodbav:"file_name,omitempty"`
	Pages         int     `json:"pages" dynamodbav:"pages"`
	Copies        int     `json:"copies" dynamodbav:"copies"`
	IsColor       bool    `json:"is_color" dynamodbav:"is_color"`
	Layout        string  `json:"layout" dynamodbav:"layout"`
	PagesPerSheet string  `json:"pages_per_sheet" dynamodbav:"pages_per_sheet"`
	PageSelection string  `json:"page_selection" dynamodbav:"page_selection"`
	CustomPages   string  `json:"custom_pages,omitempty" dynamodbav:"custom_pages,omitempty"`
	Price         float64 `json:"price" dynamodbav:"price"`
}

// ApplyDefaults fills unset print options.
func (d *Document) ApplyDefaults() {
	if d.Copies == 0 {
		d.Copies = 1
	}
	if d.Layout == "" {
		d.Layout = pricing.SingleSided
	}
	if d.PagesPerSheet == "" {
		d.PagesPerSheet = OnePagePerSide
	}
	if d.PageSelection == "" {
		d.PageSelection = AllPages
	}
}

// Order is one customer submission. A single-document order is the flat form.
type Order struct {
	ID             string     `json:"id" dynamodbav:"id"` // PK
	Phone          string     `json:"phone" dynamodbav:"phone"`
	Status         Status     `json:"status" dynamodbav:"status"`
	SubmittedAt    time.Time  `json:"submitted_at" dynamodbav:"submitted_at"`
	ScreenshotLink string     `json:"screenshot_link" dynamodbav:"screenshot_link"`
	Documents      []Document `json:"documents" dynamodbav:"documents"`
	TotalPrice     float64    `json:"total_price" dynamodbav:"total_price"`
}

// Total sums the document price snapshots.
func (o Order) Total() float64 {
	prices := make([]float64, 0, len(o.Documents))
	for _, d := range o.Documents {
		prices = append(prices, d.Price)
	}
	return pricing.Total(prices...)
}

// Validate checks a record at the store boundary.
func (o Order) Validate() error {
	if o.Phone == "" {
		return errors.New("order: phone is required")
	}
	if !o.Status.Valid() {
		return fmt.Errorf("order: unknown status %q", o.Status)
	}
	if o.SubmittedAt.IsZero() {
		return errors.New("order: submitted_at is required")
	}
	if len(o.Documents) == 0 {
		return errors.New("order: at least one document is required")
	}
	for i, d := range o.Documents {
		if d.Pages <= 0 {
			return fmt.Errorf("order: document %d has no pages", i+1)
		}
		if d.Copies <= 0 {
			return fmt.Errorf("order: document %d has no copies", i+1)
		}
		if d.DocLink == "" {
			return fmt.Errorf("order: document %d has no link", i+1)
		}
	}
	return nil
}
