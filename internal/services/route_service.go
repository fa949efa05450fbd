package services

import (
	"context"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

type RouteService struct {
	Routes RouteStore
}

func (s RouteService) ListRoutes(ctx context.Context) ([]models.Route, error) {
	routes, err := s.Routes.ListActiveRoutes(ctx)
	if err != nil {
		return nil, domain.PersistenceError{Op: "list routes", Err: err}
	}
	return routes, nil
}

func (s RouteService) GetRoute(ctx context.Context, id int64) (models.Route, error) {
	if id <= 0 {
		return models.Route{}, domain.ValidationError{Field: "id", Msg: "invalid route id"}
	}
	r, err := s.Routes.GetActiveRoute(ctx, id)
	if err != nil {
		return models.Route{}, lookupErr("route", err)
	}
	return r, nil
}
