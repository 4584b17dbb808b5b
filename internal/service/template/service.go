package template

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
	"github.com/medrelay/session-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service is the treatment template catalog. Templates are hot reads on
// every session dashboard render, so GetByID goes through a small
// read-through cache; writes invalidate.
type Service struct {
	repo  repository.TemplateRepository
	cache *gocache.Cache
}

func NewService(repo repository.TemplateRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateTemplateRequest) (*model.TreatmentTemplate, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only doctors manage treatment templates")
	}
	if len(req.Steps) == 0 {
		return nil, errors.Validation("a template needs at least one step", nil)
	}

	tpl := &model.TreatmentTemplate{
		Title:       req.Title,
		Description: req.Description,
		Steps:       req.Steps,
		CreatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentTemplate, error) {
	if cached, found := s.cache.Get(id.String()); found {
		return cached.(*model.TreatmentTemplate), nil
	}

	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id.String(), tpl, gocache.DefaultExpiration)
	return tpl, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateTemplateRequest) (*model.TreatmentTemplate, error) {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return nil, errors.Forbidden("only doctors manage treatment templates")
	}

	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, errors.Forbidden("template belongs to another doctor")
	}

	if req.Title != nil {
		tpl.Title = *req.Title
	}
	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.Steps != nil {
		tpl.Steps = req.Steps
	}

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	s.cache.Delete(id.String())
	return tpl, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsDoctor() && !actor.IsAdmin() {
		return errors.Forbidden("only doctors manage treatment templates")
	}

	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if tpl.CreatedBy != actor.ID && !actor.IsAdmin() {
		return errors.Forbidden("template belongs to another doctor")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	return nil
}

// List returns the catalog with the actor's favorites sorted first; that
// ordering is the only thing the favorite set is used for.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.TreatmentTemplate, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	favoriteIDs, err := s.repo.ListFavorites(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	favorites := make(map[uuid.UUID]struct{}, len(favoriteIDs))
	for _, id := range favoriteIDs {
		favorites[id] = struct{}{}
	}

	sort.SliceStable(templates, func(i, j int) bool {
		_, iFav := favorites[templates[i].ID]
		_, jFav := favorites[templates[j].ID]
		return iFav && !jFav
	})
	return templates, nil
}

func (s *Service) Favorite(ctx context.Context, actor model.Actor, templateID uuid.UUID) error {
	if _, err := s.repo.Get(ctx, templateID); err != nil {
		return err
	}
	return s.repo.Favorite(ctx, templateID, actor.ID)
}

func (s *Service) Unfavorite(ctx context.Context, actor model.Actor, templateID uuid.UUID) error {
	return s.repo.Unfavorite(ctx, templateID, actor.ID)
}
