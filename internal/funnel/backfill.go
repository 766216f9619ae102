package funnel

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/prepfunnel/internal/fingerprint"
	"github.com/abhisek/prepfunnel/internal/question"
)

// backfill asks the generator for the missing slots, at most
// MaxBackfillAttempts times. It stops early when an attempt satisfies fewer
// slots than it asked for, since a provider that cannot converge will not
// start converging on retry.
func (r *batchRun) backfill(ctx context.Context, missing []slot) {
	if r.o.generator == nil || len(missing) == 0 {
		return
	}

	for attempt := 1; attempt <= r.o.cfg.MaxBackfillAttempts && len(missing) > 0; attempt++ {
		r.meta.BackfillAttempts = attempt
		attempted := len(missing)

		raws := r.generate(ctx, missing)
		missing = r.assign(raws, missing)

		satisfied := attempted - len(missing)
		r.o.log.Debug("backfill attempt", "attempt", attempt, "attempted", attempted, "satisfied", satisfied)
		if satisfied < attempted {
			break
		}
	}

	if len(missing) > 0 {
		r.o.log.Warn("backfill did not converge", "attempts", r.meta.BackfillAttempts, "missing", len(missing))
	}
}

// generate calls the provider once. Errors and timeouts yield no candidates.
func (r *batchRun) generate(ctx context.Context, missing []slot) []question.RawCandidate {
	targets := make([]string, len(missing))
	for i, s := range missing {
		targets[i] = s.target.DisplayName
	}
	greq := GenerationRequest{
		Preferences:  r.req.Preferences,
		Count:        len(missing),
		Targets:      targets,
		Instructions: instructions(targets),
		Avoid:        r.avoidStems(),
	}

	gctx, cancel := withTimeout(ctx, r.o.cfg.GenerateTimeout)
	defer cancel()
	raws, err := r.o.generator.Generate(gctx, r.req.Content, greq)
	if err != nil {
		r.o.log.Warn("generation failed", "targets", len(targets), "error", err)
		return nil
	}
	return raws
}

// assign dedupes generated candidates against everything seen so far, gates
// them, and fills missing slots: a slot whose target matches a concept tag
// first, otherwise the earliest open slot. It returns the slots still open.
func (r *batchRun) assign(raws []question.RawCandidate, missing []slot) []slot {
	qs := make([]question.Question, 0, len(raws))
	for _, raw := range raws {
		q := raw.ToQuestion()
		q.ID = r.o.NewID()
		q.Source = question.SourceGenerated
		q.Provenance = r.generatedProvenance()
		qs = append(qs, q)
	}

	unique, _ := fingerprint.FilterDuplicates(qs, r.working)
	r.meta.DroppedGenerated += len(qs) - len(unique)

	open := append([]slot(nil), missing...)
	for _, q := range unique {
		if len(open) == 0 {
			break
		}
		idx := 0
		for i, s := range open {
			if matchesTarget(q, s.target) {
				idx = i
				break
			}
		}
		if r.accept(open[idx], q, fingerprint.Of(q)) {
			open = append(open[:idx], open[idx+1:]...)
		}
	}
	return open
}

// avoidStems lists stems the provider should not repeat: the batch so far
// followed by the caller's existing questions.
func (r *batchRun) avoidStems() []string {
	out := make([]string, 0, len(r.picks)+len(r.req.ExistingQuestions))
	for _, p := range r.picks {
		out = append(out, p.q.Stem)
	}
	for _, q := range r.req.ExistingQuestions {
		out = append(out, q.Stem)
	}
	return out
}

// generatedProvenance attributes generated items to the first module in
// scope.
func (r *batchRun) generatedProvenance() question.Provenance {
	if len(r.req.Scope.Modules) == 0 {
		return question.Provenance{}
	}
	ref := r.req.Scope.Modules[0]
	return question.Provenance{ModuleID: ref.ModuleID, GuideID: ref.GuideID}
}

// instructions enumerates the targets in order for the generation provider.
func instructions(targets []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d multiple-choice questions, one per concept, in this order:\n", len(targets))
	for i, t := range targets {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return strings.TrimRight(b.String(), "\n")
}
