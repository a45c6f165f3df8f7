// Background supersession reconciler (spec §5): finishes the
// predecessor-side half of a final_approval commit that was
// interrupted between its two writes. It lives in this package rather
// than db or storage because finishing a reconciliation needs
// lifecycle.ApplySupersession and storage.DocStore together, and
// storage already imports db — giving the reconciler a home in either
// of those packages would create an import cycle.
//
// Grounded on the donor's db/listener.go goroutine-plus-ticker
// reconciliation loop, generalized from a Postgres LISTEN/NOTIFY
// consumer to a periodic full scan over DocStore.PendingSupersession.
package engine

import (
	"context"
	"time"

	"tmf.evalgo.org/common"
	"tmf.evalgo.org/lifecycle"
	"tmf.evalgo.org/model"
)

var reconcilerLog = common.ServiceLogger("tmf-engine", "").WithField("component", "reconciler")

// ReconcileSupersessions scans for documents left marked
// pending_supersession and finishes each one: if the named amendment
// reached Approved, the predecessor is flipped to Superseded; if the
// amendment never did (the process crashed before the amendment write
// committed), the marker is simply cleared since there is nothing to
// finish. It returns the number of documents it resolved.
func (e *Engine) ReconcileSupersessions(ctx context.Context) (int, error) {
	pending, err := e.docs.PendingSupersession(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range pending {
		predecessor := &pending[i]
		unlock := e.locks.Lock(predecessor.DocID)
		wrote, err := e.reconcileOne(ctx, predecessor)
		if err != nil {
			reconcilerLog.WithField("doc_id", predecessor.DocID).WithError(err).Error("reconcile supersession failed")
		} else if wrote {
			resolved++
		}
		unlock()
	}
	return resolved, nil
}

// reconcileOne finishes the reconciliation for a single predecessor, if
// one is still needed. It reports whether it actually wrote a
// Superseded transition or cleared a stale marker; a prior reconciler
// pass (or a concurrent writer) may have already resolved the document,
// in which case this is a no-op and should not count toward the
// caller's resolved total.
func (e *Engine) reconcileOne(ctx context.Context, predecessor *model.Document) (bool, error) {
	current, err := e.docs.Get(ctx, predecessor.DocID)
	if err != nil {
		return false, err
	}
	if current.PendingSupersession == "" {
		return false, nil
	}

	amendment, err := e.docs.Get(ctx, current.PendingSupersession)
	if err != nil {
		return false, err
	}
	if amendment.Status != model.StatusApproved {
		cleared := current.Clone()
		cleared.PendingSupersession = ""
		if err := e.docs.Save(ctx, cleared); err != nil {
			return false, err
		}
		return true, nil
	}

	actor := model.Principal{ID: "system-reconciler", Username: "system-reconciler"}
	next, entry, err := lifecycle.ApplySupersession(current, amendment, actor)
	if err != nil {
		return false, err
	}
	next.History = append(next.History, entry)
	if err := e.docs.Save(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// RunReconciler starts a goroutine calling ReconcileSupersessions on
// interval until ctx is canceled. Callers (cmd/tmf-server) hold the
// process open for its lifetime; the reconciler itself never blocks
// startup.
func (e *Engine) RunReconciler(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.ReconcileSupersessions(ctx); err != nil {
					reconcilerLog.WithError(err).Error("supersession reconciliation pass failed")
				}
			}
		}
	}()
}
