// Package intake turns a customer submission into either a pending order or
// an urgent WhatsApp handoff.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
	"github.com/imrishuroy/printeasy-orderflow/internal/document"
	"github.com/imrishuroy/printeasy-orderflow/internal/idempotency"
	"github.com/imrishuroy/printeasy-orderflow/internal/messaging"
	"github.com/imrishuroy/printeasy-orderflow/internal/metrics"
	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
	"github.com/imrishuroy/printeasy-orderflow/internal/pricing"
	"github.com/imrishuroy/printeasy-orderflow/internal/session"
	"github.com/imrishuroy/printeasy-orderflow/internal/storage"
	"github.com/imrishuroy/printeasy-orderflow/internal/validation"
)

// RequestType picks the outcome of a validated, uploaded submission.
type RequestType string

const (
	Pickup RequestType = "Pickup"
	Urgent RequestType = "Urgent"
)

var (
	ErrSubmissionInProgress  = errors.New("a submission with this idempotency key is still in progress")
	ErrPreviousAttemptFailed = errors.New("a previous submission with this idempotency key failed; retry with a new key")
)

// FileUpload is one file received from the customer.
type FileUpload struct {
	Name    string
	Content []byte
}

// DocumentUpload is a document plus its print options.
type DocumentUpload struct {
	FileUpload
	Options validation.DocumentOptions
}

// Submission is everything the customer form sends.
type Submission struct {
	Phone          string
	RequestType    RequestType
	Documents      []DocumentUpload
	Screenshot     *FileUpload
	IdempotencyKey string
}

// Result is returned for both paths. Pickup sets OrderID, Urgent sets WhatsAppURL.
type Result struct {
	Path        RequestType       `json:"path"`
	OrderID     string            `json:"order_id,omitempty"`
	Status      orders.Status     `json:"status,omitempty"`
	WhatsAppURL string            `json:"whatsapp_url,omitempty"`
	Documents   []orders.Document `json:"documents,omitempty"`
	TotalPrice  float64           `json:"total_price"`
	Replayed    bool              `json:"replayed,omitempty"`
}

// PageCache remembers page counts per content hash. *session.Session implements it.
type PageCache interface {
	PageCount(hash string) (int, bool)
	RememberPageCount(hash string, n int)
}

// Guard deduplicates pickup submissions. *idempotency.Store implements it.
type Guard interface {
	Claim(ctx context.Context, key string) (*idempotency.Record, bool, error)
	Complete(ctx context.Context, key, orderID string) error
	Fail(ctx context.Context, key, note string) error
}

// Options wires a Service.
type Options struct {
	Store       orders.Store
	Uploader    storage.Uploader
	Inspector   document.Inspector
	Calculator  pricing.Calculator
	Guard       Guard // optional
	Metrics     *metrics.Registry
	Logger      *zap.Logger
	ShopNumber  string
	Destination string
	Prefix      string
	MaxCopies   int
}

// Service turns submissions into uploaded files and then either a stored
// Pending order or a WhatsApp handoff.
type Service struct {
	store       orders.Store
	uploader    storage.Uploader
	inspector   document.Inspector
	calc        pricing.Calculator
	guard       Guard
	metrics     *metrics.Registry
	log         *zap.Logger
	validate    *validatorv10.Validate
	shopNumber  string
	destination string
	prefix      string
	nowFunc     func() time.Time
}

// NewService builds a Service from opts. A nil Logger discards output and a
// nil Guard disables idempotency keys.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:       opts.Store,
		uploader:    opts.Uploader,
		inspector:   opts.Inspector,
		calc:        opts.Calculator,
		guard:       opts.Guard,
		metrics:     opts.Metrics,
		log:         log,
		validate:    validation.New(opts.MaxCopies),
		shopNumber:  opts.ShopNumber,
		destination: opts.Destination,
		prefix:      opts.Prefix,
		nowFunc:     time.Now,
	}
}

// Inspect validates one document and returns its page count, caching it when cache is set.
func (s *Service) Inspect(name string, content []byte, cache PageCache) (int, error) {
	n, err := s.inspector.Pages(name, content)
	if err != nil {
		return 0, err
	}
	remember(cache, content, n)
	return n, nil
}

func remember(cache PageCache, content []byte, n int) {
	if cache != nil {
		cache.RememberPageCount(session.ContentHash(content), n)
	}
}

// Submit runs Collecting -> Uploaded and then exactly one of the two terminal paths.
func (s *Service) Submit(ctx context.Context, sub Submission, cache PageCache) (*Result, error) {
	docs, err := s.collect(sub, cache)
	if err != nil {
		s.metrics.Failed(apperror.Kind(err))
		return nil, err
	}

	total := s.priceAll(docs)

	if sub.RequestType == Pickup && s.guard != nil && sub.IdempotencyKey != "" {
		if res, err := s.claim(ctx, sub.IdempotencyKey); res != nil || err != nil {
			return res, err
		}
	}

	screenshotLink, err := s.uploadAll(ctx, sub, docs)
	if err != nil {
		s.fail(ctx, sub, err)
		return nil, err
	}

	if sub.RequestType == Urgent {
		return s.handoff(sub.Phone, screenshotLink, docs, total), nil
	}
	return s.persist(ctx, sub, screenshotLink, docs, total)
}

// collect validates every field and file, returning all problems at once.
func (s *Service) collect(sub Submission, cache PageCache) ([]orders.Document, error) {
	var errs error

	if !validation.IsValidPhone(sub.Phone) {
		errs = multierr.Append(errs, &apperror.ValidationError{Field: "phone", Message: "must be exactly 10 digits"})
	}
	if sub.RequestType != Pickup && sub.RequestType != Urgent {
		errs = multierr.Append(errs, &apperror.ValidationError{Field: "request_type", Message: "must be Urgent or Pickup"})
	}
	if len(sub.Documents) == 0 {
		errs = multierr.Append(errs, &apperror.ValidationError{Field: "documents", Message: "at least one document is required"})
	}

	docs := make([]orders.Document, 0, len(sub.Documents))
	for _, up := range sub.Documents {
		doc, err := s.collectDocument(up, cache)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}

	if sub.Screenshot == nil {
		errs = multierr.Append(errs, &apperror.ValidationError{Field: "screenshot", Message: "payment screenshot is required"})
	} else if err := s.inspector.CheckFile(sub.Screenshot.Name, sub.Screenshot.Content, document.KindImage); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		return nil, errs
	}
	return docs, nil
}

func (s *Service) collectDocument(up DocumentUpload, cache PageCache) (orders.Document, error) {
	if err := s.validate.Struct(up.Options); err != nil {
		return orders.Document{}, fmt.Errorf("%s: %w", up.Name, validation.ToAppError(err))
	}

	pages, err := s.pages(up.FileUpload, cache)
	if err != nil {
		return orders.Document{}, err
	}

	doc := orders.Document{
		FileName:      up.Name,
		Pages:         pages,
		Copies:        up.Options.Copies,
		IsColor:       up.Options.IsColor,
		Layout:        up.Options.Layout,
		PagesPerSheet: up.Options.PagesPerSheet,
		PageSelection: up.Options.PageSelection,
	}
	if doc.PageSelection == orders.CustomPages {
		doc.CustomPages = strings.TrimSpace(up.Options.CustomPages)
	}
	doc.ApplyDefaults()
	return doc, nil
}

func (s *Service) pages(f FileUpload, cache PageCache) (int, error) {
	if err := s.inspector.CheckFile(f.Name, f.Content, document.KindDocument); err != nil {
		return 0, err
	}
	if cache != nil {
		if n, ok := cache.PageCount(session.ContentHash(f.Content)); ok && n > 0 {
			return n, nil
		}
	}
	n, err := s.inspector.Count(f.Name, f.Content)
	if err != nil {
		return 0, err
	}
	remember(cache, f.Content, n)
	return n, nil
}

func (s *Service) priceAll(docs []orders.Document) float64 {
	prices := make([]float64, len(docs))
	for i := range docs {
		d := &docs[i]
		d.Price = s.calc.Price(d.Pages, d.Copies, d.IsColor, d.Layout)
		prices[i] = d.Price
	}
	return pricing.Total(prices...)
}

// claim returns a replayed result for a finished key, an error for a busy or
// failed one, and (nil, nil) when the key is fresh.
func (s *Service) claim(ctx context.Context, key string) (*Result, error) {
	rec, created, err := s.guard.Claim(ctx, key)
	if err != nil {
		s.metrics.Failed("idempotency")
		return nil, &apperror.PersistenceError{Op: "claim idempotency key", Err: err}
	}
	if created {
		return nil, nil
	}

	switch rec.Status {
	case idempotency.StatusDone:
		s.log.Info("replayed pickup submission", zap.String("order_id", rec.OrderID))
		return &Result{Path: Pickup, OrderID: rec.OrderID, Status: orders.StatusPending, Replayed: true}, nil
	case idempotency.StatusInProgress:
		return nil, ErrSubmissionInProgress
	default:
		return nil, ErrPreviousAttemptFailed
	}
}

// uploadAll stores every document then the screenshot. The first failure aborts.
func (s *Service) uploadAll(ctx context.Context, sub Submission, docs []orders.Document) (string, error) {
	now := s.nowFunc()
	used := map[string]int{}

	for i := range docs {
		link, err := s.upload(ctx, sub.Phone, sub.Documents[i].FileUpload, now, used)
		if err != nil {
			return "", err
		}
		docs[i].DocLink = link
	}
	return s.upload(ctx, sub.Phone, *sub.Screenshot, now, used)
}

func (s *Service) upload(ctx context.Context, phone string, f FileUpload, now time.Time, used map[string]int) (string, error) {
	name := storage.StoredName(f.Name, now)
	if n := used[name]; n > 0 {
		used[name]++
		name = fmt.Sprintf("%d_%s", n+1, name)
	} else {
		used[name] = 1
	}

	link, err := s.uploader.Upload(ctx, f.Content, storage.ObjectKey(s.prefix, phone, name), s.destination)
	if err != nil {
		s.log.Error("upload failed", zap.String("file", f.Name), zap.Error(err))
		return "", &apperror.UploadError{File: f.Name, Err: err}
	}
	return link, nil
}

func (s *Service) handoff(phone, screenshotLink string, docs []orders.Document, total float64) *Result {
	link := messaging.Link(s.shopNumber, messaging.UrgentMessage(phone, screenshotLink, docs, total))

	s.log.Info("urgent handoff link generated", zap.String("phone", phone), zap.Int("documents", len(docs)))
	s.metrics.Submitted("urgent")
	return &Result{Path: Urgent, WhatsAppURL: link, Documents: docs, TotalPrice: total}
}

func (s *Service) persist(ctx context.Context, sub Submission, screenshotLink string, docs []orders.Document, total float64) (*Result, error) {
	order := orders.Order{
		Phone:          sub.Phone,
		Status:         orders.StatusPending,
		SubmittedAt:    s.nowFunc().UTC(),
		ScreenshotLink: screenshotLink,
		Documents:      docs,
		TotalPrice:     total,
	}

	id, err := s.store.Insert(ctx, order)
	if err != nil {
		perr := &apperror.PersistenceError{Op: "insert order", Err: err}
		s.log.Error("failed to save order", zap.String("phone", sub.Phone), zap.Error(err))
		s.fail(ctx, sub, perr)
		return nil, perr
	}

	if s.guard != nil && sub.IdempotencyKey != "" {
		if err := s.guard.Complete(ctx, sub.IdempotencyKey, id); err != nil {
			s.log.Warn("idempotency complete failed", zap.String("order_id", id), zap.Error(err))
		}
	}

	s.log.Info("order saved", zap.String("order_id", id), zap.Int("documents", len(docs)), zap.Float64("total", total))
	s.metrics.Submitted("pickup")
	return &Result{Path: Pickup, OrderID: id, Status: orders.StatusPending, Documents: docs, TotalPrice: total}, nil
}

func (s *Service) fail(ctx context.Context, sub Submission, cause error) {
	s.metrics.Failed(apperror.Kind(cause))
	if sub.RequestType != Pickup || s.guard == nil || sub.IdempotencyKey == "" {
		return
	}
	if err := s.guard.Fail(ctx, sub.IdempotencyKey, cause.Error()); err != nil {
		s.log.Warn("idempotency fail mark failed", zap.Error(err))
	}
}
