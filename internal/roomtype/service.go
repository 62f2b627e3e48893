package roomtype

import (
	"context"
)

type Service interface {
	GetByID(ctx context.Context, id string) (*RoomType, error)
	GetBySlug(ctx context.Context, slug string) (*RoomType, error)
	List(ctx context.Context, filter Filter) ([]*RoomType, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*RoomType, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*RoomType, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*RoomType, int, error) {
	return s.repo.List(ctx, filter)
}
