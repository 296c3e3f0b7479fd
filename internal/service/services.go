package service

import (
	"github.com/dom/card-chess/internal/config"
)

type Services struct {
	Session *SessionService
}

func NewServices(cfg *config.Config) *Services {
	return &Services{
		Session: NewSessionService(cfg),
	}
}
