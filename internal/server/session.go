package server

import (
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"go.treestore/internal/auth"
	"go.treestore/internal/engine"
	"go.treestore/internal/logger"
)

type Session struct {
	id       uuid.UUID
	user     *auth.User
	database *engine.Database
	dbName   string

	limiter *rate.Limiter
	reg     *registry
	log     *logger.Logger
}

// limit is commands per second, 0 means unlimited
func newSession(reg *registry, log *logger.Logger, limit float64) *Session {
	id := uuid.New()

	sess := &Session{
		id:  id,
		reg: reg,
		log: log.With("session", id.String()),
	}

	if limit > 0 {
		burst := int(limit)
		if burst < 1 {
			burst = 1
		}
		sess.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return sess
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) IsAuth() bool {
	return s.user != nil
}

func (s *Session) Allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

func (s *Session) CloseDB() {
	if s.database != nil {
		if err := s.reg.release(s.dbName); err != nil {
			s.log.Errorf("close %s: %v", s.dbName, err)
		}
		s.database = nil
		s.dbName = ""
	}
}
