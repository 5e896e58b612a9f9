package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/config"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/store"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

type Server struct {
	router *gin.Engine
	store  store.Store
	tasks  *task.Registry
	config *config.Config
}

func NewServer(cfg *config.Config, st store.Store, tasks *task.Registry) (*Server, error) {
	r := gin.New()
	s := &Server{
		router: r,
		store:  st,
		tasks:  tasks,
		config: cfg,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
