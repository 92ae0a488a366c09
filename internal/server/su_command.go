package server

import (
	"go.treestore/internal/auth"
)

// Every command in this file needs a superuser session
func requireSuperuser(sess *Session) (Response, bool) {
	if !sess.IsAuth() {
		return Err(NoAuth), false
	}

	if !sess.user.IsSuperuser() {
		return Err(NoPerm), false
	}

	return Response{}, true
}

func (s *Server) createUserCommand(sess *Session, parts []string) Response {
	if resp, ok := requireSuperuser(sess); !ok {
		return resp
	}

	if len(parts) != 4 {
		return Usage("CREATEUSER <username> <password> <role>")
	}

	role, err := auth.ParseRole(parts[3])
	if err != nil {
		return Err(Msg("Invalid Role"))
	}

	// Later we should implement minimum length / complexity
	if err := s.auth.CreateUser(parts[1], parts[2], role); err != nil {
		return ErrFrom(err)
	}

	sess.log.Infof("created user %s (%s)", parts[1], role)
	return Respond(OK)
}

func (s *Server) delUserCommand(sess *Session, parts []string) Response {
	if resp, ok := requireSuperuser(sess); !ok {
		return resp
	}

	if len(parts) != 2 {
		return Usage("DELUSER <username>")
	}

	if parts[1] == sess.user.Username {
		return Err(Msg("Cannot delete the current user"))
	}

	if err := s.auth.DeleteUser(parts[1]); err != nil {
		return ErrFrom(err)
	}

	sess.log.Infof("deleted user %s", parts[1])
	return Respond(OK)
}

func (s *Server) grantDBCommand(sess *Session, parts []string) Response {
	if resp, ok := requireSuperuser(sess); !ok {
		return resp
	}

	if len(parts) != 3 {
		return Usage("GRANTDB <user> <dbname>")
	}

	if err := s.auth.Grant(parts[1], parts[2]); err != nil {
		return ErrFrom(err)
	}

	return Respond(OK)
}

func (s *Server) revokeDBCommand(sess *Session, parts []string) Response {
	if resp, ok := requireSuperuser(sess); !ok {
		return resp
	}

	if len(parts) != 3 {
		return Usage("REVOKEDB <user> <dbname>")
	}

	if err := s.auth.Revoke(parts[1], parts[2]); err != nil {
		return ErrFrom(err)
	}

	return Respond(OK)
}

func (s *Server) createDBCommand(sess *Session, parts []string) Response {
	if resp, ok := requireSuperuser(sess); !ok {
		return resp
	}

	if len(parts) != 2 {
		return Usage("CREATEDB <dbname>")
	}

	if err := s.reg.create(parts[1]); err != nil {
		return ErrFrom(err)
	}

	sess.log.Infof("created database %s", parts[1])
	return Respond(OK)
}

func (s *Server) dropDBCommand(sess *Session, parts []string) Response {
	if resp, ok := requireSuperuser(sess); !ok {
		return resp
	}

	if len(parts) != 2 {
		return Usage("DROPDB <dbname>")
	}

	// let go of our own handle when nobody else holds it
	if sess.dbName == parts[1] && s.reg.refs(parts[1]) == 1 {
		sess.CloseDB()
	}

	if err := s.reg.drop(parts[1]); err != nil {
		return ErrFrom(err)
	}

	sess.log.Infof("dropped database %s", parts[1])
	return Respond(OK)
}
