// Package bank serves the curated (gold) and cached (prefab) question pools
// from the store and manages bank files.
package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/prepfunnel/internal/funnel"
	"github.com/abhisek/prepfunnel/internal/logger"
	"github.com/abhisek/prepfunnel/internal/question"
	"github.com/abhisek/prepfunnel/internal/store"
)

// DefaultTTL is how long a loaded pool is served from memory.
const DefaultTTL = 5 * time.Minute

var (
	_ funnel.CuratedPool = (*Service)(nil)
	_ funnel.CachedPool  = (*Service)(nil)
)

// Service reads pools through a TTL cache. Concurrent loads of the same
// pool share one store query.
type Service struct {
	repo  store.BankRepo
	cache *cache.Cache
	group singleflight.Group
	log   *logger.Logger
}

// New creates a Service. A non-positive ttl uses DefaultTTL.
func New(repo store.BankRepo, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// GetApproved returns the active gold questions of a module.
func (s *Service) GetApproved(ctx context.Context, moduleID string) ([]question.Question, error) {
	items, err := s.load(ctx, "gold:"+moduleID, store.BankFilter{
		Kind:       store.BankGold,
		ModuleID:   moduleID,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]question.Question, 0, len(items))
	for _, it := range items {
		out = append(out, it.Question.Clone())
	}
	return out, nil
}

// GetCached returns the prefab set of a guide. Retired items stay in the
// set but are reported inactive.
func (s *Service) GetCached(ctx context.Context, guideID string) (*funnel.CachedSet, error) {
	items, err := s.load(ctx, "prefab:"+guideID, store.BankFilter{
		Kind:    store.BankPrefab,
		GuideID: guideID,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	set := &funnel.CachedSet{Questions: make([]question.Question, 0, len(items))}
	active := make(map[string]bool, len(items))
	for _, it := range items {
		set.Questions = append(set.Questions, it.Question.Clone())
		active[it.Question.ID] = it.Active
	}
	set.Active = func(id string) bool { return active[id] }
	return set, nil
}

// Invalidate drops every cached pool.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

func (s *Service) load(ctx context.Context, key string, f store.BankFilter) ([]store.BankQuestionData, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.([]store.BankQuestionData), nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		items, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(key, items)
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s pool: %w", key, err)
	}
	s.log.Debug("bank pool loaded", "pool", key, "shared", shared)
	return v.([]store.BankQuestionData), nil
}

// List returns bank items matching f, bypassing the cache.
func (s *Service) List(ctx context.Context, f store.BankFilter) ([]store.BankQuestionData, error) {
	return s.repo.List(ctx, f)
}

// Retire validates the reason and marks a bank item inactive.
func (s *Service) Retire(ctx context.Context, id, reason, note string) error {
	r, err := question.ParseRetirement(reason, note)
	if err != nil {
		return err
	}
	if err := s.repo.Retire(ctx, id, r); err != nil {
		return fmt.Errorf("retire %s: %w", id, err)
	}
	s.Invalidate()
	s.log.Info("bank item retired", "id", id, "reason", r.Reason)
	return nil
}

// Get returns the bank item with the given id, active or not.
func (s *Service) Get(ctx context.Context, id string) (*store.BankQuestionData, error) {
	items, err := s.repo.List(ctx, store.BankFilter{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	for i := range items {
		if items[i].Question.ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("bank question %s: %w", id, store.ErrNotFound)
}
