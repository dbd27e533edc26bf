// Package review implements the staging-queue review workflow: guests
// submit candidate links into a staging table, admins approve them into
// the published dataset or reject them.
package review

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/haoyun/navtable/internal/bitable"
	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/store"
)

// Store is the adapter surface the workflow drives.
type Store interface {
	List(ctx context.Context, pageSize int, pageToken string) (store.Page, error)
	Get(ctx context.Context, id string) (domain.Link, error)
	Create(ctx context.Context, l domain.Link) (string, error)
	Delete(ctx context.Context, id string) error
}

// Workflow orchestrates the Pending -> Approved/Rejected transitions.
// Neither state is persisted explicitly: approval is "exists in
// published, gone from staging", rejection is "gone from staging".
type Workflow struct {
	staging    Store
	published  Store
	logger     logger.Logger
	guestLimit int

	// newBackoff builds the retry policy for the approve delete step.
	// Swapped out in tests.
	newBackoff func() backoff.BackOff
}

// New builds the workflow over the staging queue and the default
// published dataset. guestLimit caps the public read-only listing.
// deleteRetryMax bounds the total time spent retrying the staging
// delete after a successful publish.
func New(staging, published Store, guestLimit int, deleteRetryMax time.Duration, log logger.Logger) *Workflow {
	if guestLimit <= 0 {
		guestLimit = 100
	}
	return &Workflow{
		staging:    staging,
		published:  published,
		logger:     log,
		guestLimit: guestLimit,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = deleteRetryMax
			return b
		},
	}
}

// Pending fetches one admin page of the staging queue.
func (w *Workflow) Pending(ctx context.Context, pageSize int, pageToken string) (store.Page, error) {
	return w.staging.List(ctx, pageSize, pageToken)
}

// PendingPublic is the guest-facing listing: a single capped page, no
// cursor exposed, no mutation capability.
func (w *Workflow) PendingPublic(ctx context.Context) ([]domain.Link, error) {
	page, err := w.staging.List(ctx, w.guestLimit, "")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Approve promotes a staged record into the published dataset:
// read, normalize, validate, publish, then delete from staging.
//
// A publish failure leaves staging untouched, so the operation is
// safely retryable. A delete failure after a successful publish leaves
// the record in both stores; the delete is retried with backoff and, if
// it still fails, the inconsistency is logged for manual cleanup rather
// than returned as a hard failure.
func (w *Workflow) Approve(ctx context.Context, id string) error {
	staged, err := w.staging.Get(ctx, id)
	if err != nil {
		return err
	}

	if staged.URL == "" {
		return &domain.ValidationError{Msg: "staged record has no usable URL"}
	}
	if staged.Category == "" {
		staged.Category = domain.CategoryUncategorized
	}
	if staged.Sort == 0 {
		staged.Sort = domain.DefaultSort
	}

	// The published store assigns its own identity; the staging id is
	// never reused.
	publishedID, err := w.published.Create(ctx, staged)
	if err != nil {
		return err
	}

	if err := w.deleteStaged(ctx, id); err != nil {
		w.logger.Error("approved record is still in the staging queue, manual cleanup required",
			logger.String("staging_id", id),
			logger.String("published_id", publishedID),
			logger.Error(err))
		// Deliberately not a hard failure: the link is live, only the
		// queue entry lingers.
		return nil
	}

	w.logger.Info("staged link approved",
		logger.String("staging_id", id),
		logger.String("published_id", publishedID),
		logger.String("name", staged.Name))
	return nil
}

// Reject removes a staged record without touching the published store.
// Rejecting an id that is already gone surfaces NotFound.
func (w *Workflow) Reject(ctx context.Context, id string) error {
	if err := w.staging.Delete(ctx, id); err != nil {
		return err
	}
	w.logger.Info("staged link rejected", logger.String("staging_id", id))
	return nil
}

func (w *Workflow) deleteStaged(ctx context.Context, id string) error {
	op := func() error {
		err := w.staging.Delete(ctx, id)
		if err == nil || bitable.IsNotFound(err) {
			// Already gone is good enough.
			return nil
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(w.newBackoff(), ctx))
}
