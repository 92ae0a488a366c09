package server

type Msg string

const (
	OK     Msg = "OK"
	Prompt Msg = "treestore> "

	NoAuth    Msg = "Not authenticated"
	NoPerm    Msg = "Permission denied"
	NoDB      Msg = "No open DB"
	Throttled Msg = "Rate limit exceeded"
	Unknown   Msg = "Unknown command"
	Goodbye   Msg = "Bye"
	Shutdown  Msg = "Server shutting down..."
)

// Response is one reply line. Close hangs up after it is written.
type Response struct {
	Msg   Msg
	Close bool
}

func Respond(m Msg) Response {
	return Response{Msg: m}
}

func Err(m Msg) Response {
	return Response{Msg: "ERR: " + m}
}

func ErrFrom(err error) Response {
	return Err(Msg(err.Error()))
}

func Usage(usage string) Response {
	return Err(Msg("Usage " + usage))
}
