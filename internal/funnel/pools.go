package funnel

import (
	"context"

	"github.com/abhisek/prepfunnel/internal/fingerprint"
	"github.com/abhisek/prepfunnel/internal/question"
)

// loadCurated loads the gold pool of every module in scope once. A failing
// or slow module contributes nothing.
func (r *batchRun) loadCurated(ctx context.Context) []*poolItem {
	if r.o.curated == nil {
		return nil
	}

	var items []*poolItem
	seen := make(map[string]bool)
	for _, ref := range r.req.Scope.Modules {
		if ref.ModuleID == "" || seen[ref.ModuleID] {
			continue
		}
		seen[ref.ModuleID] = true

		pctx, cancel := withTimeout(ctx, r.o.cfg.PoolTimeout)
		qs, err := r.o.curated.GetApproved(pctx, ref.ModuleID)
		cancel()
		if err != nil {
			r.o.log.Warn("curated pool unavailable", "module", ref.ModuleID, "error", err)
			continue
		}
		items = append(items, toPoolItems(qs, question.SourceGold, ref)...)
	}
	return items
}

// loadCached loads the active prefab set of every guide in scope once.
func (r *batchRun) loadCached(ctx context.Context) []*poolItem {
	if r.o.cached == nil {
		return nil
	}

	var items []*poolItem
	seen := make(map[string]bool)
	for _, ref := range r.req.Scope.Modules {
		if ref.GuideID == "" || seen[ref.GuideID] {
			continue
		}
		seen[ref.GuideID] = true

		pctx, cancel := withTimeout(ctx, r.o.cfg.PoolTimeout)
		set, err := r.o.cached.GetCached(pctx, ref.GuideID)
		cancel()
		if err != nil {
			r.o.log.Warn("cached pool unavailable", "guide", ref.GuideID, "error", err)
			continue
		}
		if set == nil {
			continue
		}
		items = append(items, toPoolItems(set.ActiveQuestions(), question.SourcePrefab, ref)...)
	}
	return items
}

func toPoolItems(qs []question.Question, src question.SourceType, ref ModuleRef) []*poolItem {
	out := make([]*poolItem, 0, len(qs))
	for _, q := range qs {
		q = q.Clone()
		out = append(out, newPoolItem(question.Candidate{
			Question:   q,
			Source:     src,
			Provenance: provenance(q.Provenance, ref),
		}, fingerprint.Of(q)))
	}
	return out
}

// provenance fills gaps in a question's own provenance from the module it
// was loaded for.
func provenance(p question.Provenance, ref ModuleRef) question.Provenance {
	if p.ModuleID == "" {
		p.ModuleID = ref.ModuleID
	}
	if p.GuideID == "" {
		p.GuideID = ref.GuideID
	}
	return p
}
