package server

import (
	"errors"

	"go.treestore/internal/engine"
)

func (s *Server) authCommand(sess *Session, parts []string) Response {
	if len(parts) != 3 {
		return Usage("AUTH <username> <password>")
	}

	u, err := s.auth.Authenticate(parts[1], parts[2])
	if err != nil {
		sess.log.Warnf("failed AUTH for %s", parts[1])
		return ErrFrom(err)
	}

	sess.user = u
	sess.log.Infof("authenticated as %s", u.Username)
	return Respond(OK)
}

func (s *Server) openDBCommand(sess *Session, parts []string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) != 2 {
		return Usage("OPEN <dbname>")
	}

	// grants may have changed since AUTH
	u, err := s.auth.Store().GetUser(sess.user.Username)
	if err != nil {
		sess.user = nil
		return Err(NoAuth)
	}
	sess.user = u

	name := parts[1]
	if !sess.user.CanOpenDB(name) {
		return Err(NoPerm)
	}

	sess.CloseDB()

	db, err := s.reg.acquire(name)
	if err != nil {
		return Err(Msg("Failed to open db: " + err.Error()))
	}

	sess.database = db
	sess.dbName = name
	sess.log.Infof("opened %s", name)
	return Respond(OK)
}

func setCommand(sess *Session, parts []string) Response {
	if sess.database == nil {
		return Err(NoDB)
	}

	if len(parts) != 3 {
		return Usage("SET <key> <val>")
	}

	if !sess.user.CanWrite(sess.dbName) {
		return Err(NoPerm)
	}

	if err := sess.database.Set(parts[1], []byte(parts[2])); err != nil {
		return ErrFrom(err)
	}

	return Respond(OK)
}

func getCommand(sess *Session, parts []string) Response {
	if sess.database == nil {
		return Err(NoDB)
	}

	if len(parts) != 2 {
		return Usage("GET <key>")
	}

	val, err := sess.database.Get(parts[1])
	if errors.Is(err, engine.ErrKeyNotFound) {
		return Err(Msg("Key does not exist"))
	}
	if err != nil {
		return ErrFrom(err)
	}

	return Respond(Msg(val))
}

func exitCommand(sess *Session) Response {
	sess.CloseDB()
	return Response{Msg: Goodbye, Close: true}
}
