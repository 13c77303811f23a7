// Package api implements the HTTP surface of the task assignment service.
package api

import (
	"context"

	"golang.org/x/time/rate"

	"fieldroute/internal/config"
	"fieldroute/internal/route"
	"fieldroute/internal/solver"
	"fieldroute/internal/store"
)

type Server struct {
	Cfg     config.Config
	Store   store.Store
	Planner *route.Planner
	Broker  EventBroker

	limiter *rate.Limiter
}

// NewServer wires the server. Without a DatabaseURL it uses the in-memory
// store; without a RedisURL the in-process broker.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if cfg.DatabaseURL == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := sp.Migrate(context.Background()); err != nil {
			return nil, err
		}
		s = sp
	}
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	rps := cfg.RateLimit.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 10
	}
	return &Server{
		Cfg:     cfg,
		Store:   s,
		Planner: route.NewPlanner(solver.NewEngine()),
		Broker:  broker,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}
