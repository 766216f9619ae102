package bank

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepfunnel/internal/question"
	"github.com/abhisek/prepfunnel/internal/store"
)

type memBank struct {
	mu    sync.Mutex
	items map[string]store.BankQuestionData
	lists atomic.Int32
	block chan struct{}
	err   error
}

func newMemBank() *memBank {
	return &memBank{items: make(map[string]store.BankQuestionData)}
}

func (m *memBank) Upsert(_ context.Context, items []store.BankQuestionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if old, ok := m.items[it.Question.ID]; ok {
			it.Active = old.Active
			it.RetireReason = old.RetireReason
			it.RetireNote = old.RetireNote
		}
		m.items[it.Question.ID] = it
	}
	return nil
}

func (m *memBank) List(_ context.Context, f store.BankFilter) ([]store.BankQuestionData, error) {
	m.lists.Add(1)
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.BankQuestionData
	for _, it := range m.items {
		switch {
		case f.Kind != "" && it.Kind != f.Kind:
		case f.ModuleID != "" && it.Question.Provenance.ModuleID != f.ModuleID:
		case f.GuideID != "" && it.Question.Provenance.GuideID != f.GuideID:
		case f.ActiveOnly && !it.Active:
		default:
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memBank) Retire(_ context.Context, id string, r question.Retirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return store.ErrNotFound
	}
	it.Active = false
	it.RetireReason = string(r.Reason)
	it.RetireNote = r.Note
	m.items[id] = it
	return nil
}

func item(id string) question.Question {
	return question.Question{
		ID:            id,
		Stem:          "Stem of " + id,
		Options:       []string{"Alpha", "Bravo", "Charlie", "Delta"},
		CorrectAnswer: "Bravo",
		Concepts:      []string{"Pneumonia"},
	}
}

func goldFile(qs ...question.Question) *File {
	return &File{Kind: store.BankGold, ModuleID: "pulm", Questions: qs}
}

func prefabFile(qs ...question.Question) *File {
	return &File{Kind: store.BankPrefab, ModuleID: "pulm", GuideID: "guide-pulm", Questions: qs}
}

func TestImport_AndServePools(t *testing.T) {
	ctx := context.Background()
	repo := newMemBank()
	svc := New(repo, time.Minute, nil)

	res, err := svc.Import(ctx, goldFile(item("g1"), item("g2")))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Rejected)

	_, err = svc.Import(ctx, prefabFile(item("p1")))
	require.NoError(t, err)

	gold, err := svc.GetApproved(ctx, "pulm")
	require.NoError(t, err)
	assert.Len(t, gold, 2)
	for _, q := range gold {
		assert.Equal(t, question.SourceGold, q.Source)
		assert.Equal(t, "pulm", q.Provenance.ModuleID)
	}

	set, err := svc.GetCached(ctx, "guide-pulm")
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Len(t, set.ActiveQuestions(), 1)
	assert.Equal(t, question.SourcePrefab, set.Questions[0].Source)
}

func TestImport_RejectsInvalidItems(t *testing.T) {
	bad := item("bad")
	bad.CorrectAnswer = "Zulu"
	empty := item("empty")
	empty.Stem = "  "

	svc := New(newMemBank(), 0, nil)
	res, err := svc.Import(context.Background(), goldFile(item("ok"), bad, empty, item("ok")))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Rejected, 3)
	assert.Equal(t, 1, res.Rejected[0].Index)
	assert.Contains(t, res.Rejected[0].Reason, "prepare")
	assert.Contains(t, res.Rejected[1].Reason, "structural")
	assert.Equal(t, "duplicate id in file", res.Rejected[2].Reason)
}

func TestImport_ResolvesRawKeys(t *testing.T) {
	letter := question.Question{
		ID:            "letter",
		Stem:          "Which anticoagulant is preferred in heparin-induced thrombocytopenia?",
		Options:       []string{"Heparin", "Argatroban", "Enoxaparin", "Warfarin"},
		CorrectAnswer: "B",
	}
	analysis := question.Question{
		ID:      "analysis",
		Stem:    "First-line reliever in acute asthma?",
		Options: []string{"A. Montelukast", "B. Salbutamol", "C. Theophylline", "D. Omalizumab"},
		Explanation: `Choice Analysis:
| Choice | Analysis |
|---|---|
| Montelukast | Incorrect: controller only |
| Salbutamol | Correct: short-acting bronchodilator |
| Theophylline | Incorrect: narrow therapeutic index |
| Omalizumab | Incorrect: biologic controller |`,
	}

	repo := newMemBank()
	svc := New(repo, 0, nil)
	res, err := svc.Import(context.Background(), goldFile(letter, analysis))
	require.NoError(t, err)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, 2, res.Imported)

	got := repo.items["letter"].Question
	assert.Equal(t, "Argatroban", got.CorrectAnswer)
	assert.Equal(t, letter.Options, got.Options, "import keeps option order")

	got = repo.items["analysis"].Question
	assert.Equal(t, "Salbutamol", got.CorrectAnswer)
	assert.Equal(t, []string{"Montelukast", "Salbutamol", "Theophylline", "Omalizumab"}, got.Options)
}

func TestImport_StableIDs(t *testing.T) {
	repo := newMemBank()
	svc := New(repo, 0, nil)
	q := item("")

	_, err := svc.Import(context.Background(), goldFile(q))
	require.NoError(t, err)
	_, err = svc.Import(context.Background(), goldFile(q))
	require.NoError(t, err)

	assert.Len(t, repo.items, 1)
}

func TestPools_CacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := newMemBank()
	svc := New(repo, time.Minute, nil)
	_, err := svc.Import(ctx, goldFile(item("g1")))
	require.NoError(t, err)

	_, err = svc.GetApproved(ctx, "pulm")
	require.NoError(t, err)
	_, err = svc.GetApproved(ctx, "pulm")
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.lists.Load())

	require.NoError(t, svc.Retire(ctx, "g1", "outdated", ""))

	gold, err := svc.GetApproved(ctx, "pulm")
	require.NoError(t, err)
	assert.Empty(t, gold)
	assert.Equal(t, int32(2), repo.lists.Load())
}

func TestPools_ConcurrentLoadsShareQuery(t *testing.T) {
	repo := newMemBank()
	repo.items["g1"] = store.BankQuestionData{
		Kind:     store.BankGold,
		Question: question.Question{ID: "g1", Provenance: question.Provenance{ModuleID: "pulm"}},
		Active:   true,
	}
	repo.block = make(chan struct{})
	svc := New(repo, time.Minute, nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			qs, err := svc.GetApproved(context.Background(), "pulm")
			assert.NoError(t, err)
			assert.Len(t, qs, 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.block)
	wg.Wait()

	assert.LessOrEqual(t, repo.lists.Load(), int32(5))
	assert.GreaterOrEqual(t, repo.lists.Load(), int32(1))
}

func TestGetCached_RetiredItemsInactive(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemBank(), time.Minute, nil)
	_, err := svc.Import(ctx, prefabFile(item("p1"), item("p2")))
	require.NoError(t, err)
	require.NoError(t, svc.Retire(ctx, "p1", "other", "superseded by guideline"))

	set, err := svc.GetCached(ctx, "guide-pulm")
	require.NoError(t, err)
	assert.Len(t, set.Questions, 2)
	active := set.ActiveQuestions()
	require.Len(t, active, 1)
	assert.Equal(t, "p2", active[0].ID)
}

func TestGetCached_UnknownGuide(t *testing.T) {
	set, err := New(newMemBank(), 0, nil).GetCached(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestRetire_Errors(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemBank(), 0, nil)

	err := svc.Retire(ctx, "g1", "boring", "")
	assert.ErrorIs(t, err, question.ErrInvalidRetirement)

	err = svc.Retire(ctx, "g1", "other", "")
	assert.ErrorIs(t, err, question.ErrInvalidRetirement)

	err = svc.Retire(ctx, "missing", "duplicate", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoad_ErrorWrapped(t *testing.T) {
	repo := newMemBank()
	repo.err = errors.New("db locked")
	_, err := New(repo, 0, nil).GetApproved(context.Background(), "pulm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gold:pulm")
}

func TestParse(t *testing.T) {
	yamlBody := []byte(`kind: Gold
module_id: pulm
questions:
  - id: g1
    stem: Most common cause of community-acquired pneumonia?
    options: [Streptococcus pneumoniae, Haemophilus influenzae, Legionella, Mycoplasma]
    correct_answer: A
    concepts: [Pneumonia]
`)
	f, err := Parse(yamlBody, false)
	require.NoError(t, err)
	assert.Equal(t, store.BankGold, f.Kind)
	require.Len(t, f.Questions, 1)
	assert.Equal(t, "A", f.Questions[0].CorrectAnswer)

	_, err = Parse([]byte("kind: prefab\nmodule_id: pulm\nquestions:\n  - stem: x\n"), false)
	assert.Error(t, err, "prefab needs guide_id")

	_, err = Parse([]byte("kind: gold\nmodule_id: pulm\nquestions: []\n"), false)
	assert.Error(t, err, "empty questions")

	_, err = Parse([]byte("kind: gold\nmodule_id: pulm\nbogus: 1\nquestions:\n  - stem: x\n"), false)
	assert.Error(t, err, "unknown field")

	f, err = Parse([]byte(`{"kind":"prefab","guide_id":"g","questions":[{"stem":"x","options":["a","b"],"correct_answer":"a"}]}`), true)
	require.NoError(t, err)
	assert.Equal(t, store.BankPrefab, f.Kind)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"gold","module_id":"m","questions":[{"stem":"x","options":["a","b"],"correct_answer":"b"}]}`), 0o644))

	f, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "m", f.ModuleID)

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemBank(), time.Minute, nil)
	_, err := svc.Import(ctx, goldFile(item("g1")))
	require.NoError(t, err)
	require.NoError(t, svc.Retire(ctx, "g1", "outdated", ""))

	got, err := svc.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Stem of g1", got.Question.Stem)
	assert.False(t, got.Active)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
