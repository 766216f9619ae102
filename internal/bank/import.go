package bank

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/prepfunnel/internal/answerkey"
	"github.com/abhisek/prepfunnel/internal/fingerprint"
	"github.com/abhisek/prepfunnel/internal/question"
	"github.com/abhisek/prepfunnel/internal/store"
)

// Rejection is an item left out of an import.
type Rejection struct {
	Index  int
	ID     string
	Reason string
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int
	Rejected []Rejection
}

// Import validates every item of f and upserts the ones that pass. Raw
// keys (a letter, a blank key explained by a choice analysis) are resolved
// and stored as the exact option text, in the file's option order. Items
// without an id get one derived from their fingerprint, so re-importing
// the same file updates rather than duplicates.
func (s *Service) Import(ctx context.Context, f *File) (*ImportResult, error) {
	gate := answerkey.NewGate(answerkey.SessionOptions{})
	res := &ImportResult{}
	items := make([]store.BankQuestionData, 0, len(f.Questions))
	seen := make(map[string]bool, len(f.Questions))

	for i, q := range f.Questions {
		q = q.Clone()
		if q.ID == "" {
			q.ID = stableID(q)
		}
		if seen[q.ID] {
			res.Rejected = append(res.Rejected, Rejection{Index: i, ID: q.ID, Reason: "duplicate id in file"})
			continue
		}
		if q.Type == "" {
			q.Type = question.TypeMultipleChoice
		}
		q.Source = sourceFor(f.Kind)
		q.Provenance = question.Provenance{ModuleID: f.ModuleID, GuideID: f.GuideID}

		prepared, verr := gate.Admit(q)
		if verr != nil {
			s.log.Debug("bank item rejected", "index", i, "id", q.ID, "validator", verr.Validator, "reason", verr.Message)
			res.Rejected = append(res.Rejected, Rejection{Index: i, ID: q.ID, Reason: verr.Error()})
			continue
		}

		seen[q.ID] = true
		items = append(items, store.BankQuestionData{Kind: f.Kind, Question: *prepared, Active: true})
	}

	if len(items) > 0 {
		if err := s.repo.Upsert(ctx, items); err != nil {
			return nil, fmt.Errorf("import bank: %w", err)
		}
		s.Invalidate()
	}
	res.Imported = len(items)
	s.log.Info("bank imported", "kind", f.Kind, "module", f.ModuleID, "guide", f.GuideID,
		"imported", res.Imported, "rejected", len(res.Rejected))
	return res, nil
}

func stableID(q question.Question) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fingerprint.Of(q))).String()
}

func sourceFor(k store.BankKind) question.SourceType {
	if k == store.BankGold {
		return question.SourceGold
	}
	return question.SourcePrefab
}
