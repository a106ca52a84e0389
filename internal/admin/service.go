// Package admin implements the operator side: the password check, the
// pending and done queues, marking orders done and the retention sweep.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
	"github.com/imrishuroy/printeasy-orderflow/internal/metrics"
	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
)

// DefaultRetention is how long a Done order is kept.
const DefaultRetention = 12 * time.Hour

// ErrInvalidPassword is returned by Login for a wrong or unset password.
var ErrInvalidPassword = errors.New("invalid password")

// SweepReporter receives the purge count of every sweep.
type SweepReporter interface {
	ReportSweep(ctx context.Context, purged int) error
}

// Dashboard is what the admin page renders.
type Dashboard struct {
	Pending     []orders.Order `json:"pending"`
	Done        []orders.Order `json:"done"`
	Cleaned     int            `json:"cleaned"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Options configures NewService. Store is required.
type Options struct {
	Store     orders.Store
	Password  string
	Retention time.Duration
	Metrics   *metrics.Registry
	Reporter  SweepReporter // optional
	Logger    *zap.Logger
}

// Service runs the admin operations against the order store.
type Service struct {
	store     orders.Store
	password  []byte
	retention time.Duration
	metrics   *metrics.Registry
	reporter  SweepReporter
	log       *zap.Logger
	nowFunc   func() time.Time
}

// NewService builds a Service. A zero Retention means DefaultRetention and a
// nil Logger discards output.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		store:     opts.Store,
		password:  []byte(opts.Password),
		retention: retention,
		metrics:   opts.Metrics,
		reporter:  opts.Reporter,
		log:       log,
		nowFunc:   time.Now,
	}
}

// Login checks the admin password. The caller issues the admin token.
func (s *Service) Login(password string) error {
	if len(s.password) == 0 || subtle.ConstantTimeCompare(s.password, []byte(password)) != 1 {
		s.log.Warn("admin login failed")
		return ErrInvalidPassword
	}
	s.log.Info("admin logged in")
	return nil
}

// Logout records the logout. The caller clears the admin token.
func (s *Service) Logout() {
	s.log.Info("admin logged out")
}

// Sweep deletes Done orders submitted before now-retention. Pending orders
// are never touched. A failed delete is logged and the sweep moves on; the
// returned error aggregates those failures.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	done, err := s.store.ListByStatus(ctx, orders.StatusDone)
	if err != nil {
		return 0, &apperror.PersistenceError{Op: "list done orders", Err: err}
	}

	cutoff := now.Add(-s.retention)
	var (
		cleaned int
		errs    error
	)
	for _, o := range done {
		if !o.SubmittedAt.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, o.ID); err != nil {
			if errors.Is(err, orders.ErrNotFound) {
				continue
			}
			s.log.Error("retention delete failed", zap.String("order_id", o.ID), zap.Error(err))
			errs = multierr.Append(errs, &apperror.PersistenceError{Op: "delete order " + o.ID, Err: err})
			continue
		}
		cleaned++
	}

	s.log.Info(fmt.Sprintf("cleaned %d old requests", cleaned), zap.Int("count", cleaned))
	s.metrics.AddPurged(cleaned)
	if s.reporter != nil {
		if err := s.reporter.ReportSweep(ctx, cleaned); err != nil {
			s.log.Warn("sweep report failed", zap.Error(err))
		}
	}
	return cleaned, errs
}

// Dashboard sweeps first, then lists both queues oldest first. A failed
// sweep does not hide the queues.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.nowFunc().UTC()
	cleaned, err := s.Sweep(ctx, now)
	if err != nil {
		s.log.Warn("sweep finished with errors", zap.Error(err))
	}

	pending, err := s.List(ctx, orders.StatusPending)
	if err != nil {
		return nil, err
	}
	done, err := s.List(ctx, orders.StatusDone)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Pending: pending, Done: done, Cleaned: cleaned, GeneratedAt: now}, nil
}

// List returns the orders in one status, oldest first, never nil.
func (s *Service) List(ctx context.Context, status orders.Status) ([]orders.Order, error) {
	if !status.Valid() {
		return nil, &apperror.ValidationError{Field: "status", Message: "must be Pending or Done"}
	}
	list, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, &apperror.PersistenceError{Op: "list " + string(status) + " orders", Err: err}
	}
	if list == nil {
		list = []orders.Order{}
	}
	return list, nil
}

// MarkDone moves an order to Done. Marking a Done order again is a no-op and
// is neither logged at info nor counted.
func (s *Service) MarkDone(ctx context.Context, id string) error {
	changed, err := s.store.UpdateStatus(ctx, id, orders.StatusDone)
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrNotFound):
		return err
	default:
		s.log.Error("mark done failed", zap.String("order_id", id), zap.Error(err))
		return &apperror.PersistenceError{Op: "mark done", Err: err}
	}

	if !changed {
		s.log.Debug("order already done", zap.String("order_id", id))
		return nil
	}
	s.log.Info("order marked done", zap.String("order_id", id))
	s.metrics.MarkedDone()
	return nil
}
