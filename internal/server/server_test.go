package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.treestore/internal/auth"
	"go.treestore/internal/config"
	"go.treestore/internal/engine"
	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
)

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (c *client) readPrompt() {
	c.t.Helper()

	buf := make([]byte, len(Prompt))
	_, err := io.ReadFull(c.r, buf)
	require.NoError(c.t, err)
	require.Equal(c.t, string(Prompt), string(buf))
}

// send writes one command and returns the reply line without its newline
func (c *client) send(line string) string {
	c.t.Helper()

	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)

	resp, err := c.r.ReadString('\n')
	require.NoError(c.t, err)

	resp = strings.TrimSuffix(resp, "\n")
	if resp != string(Goodbye) {
		c.readPrompt()
	}
	return resp
}

func startServer(t *testing.T, mutate func(*config.Config)) (*Server, string) {
	t.Helper()

	cfg, err := config.LoadConfig(t.TempDir(), "")
	require.NoError(t, err)
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(cfg)
	}

	fs, err := auth.NewFileStore(cfg.UserFile)
	require.NoError(t, err)
	a := auth.NewAuthenticator(fs)
	require.NoError(t, a.CreateUser("root", "toor", auth.RoleSuperuser))
	require.NoError(t, a.CreateUser("bob", "pw", auth.RoleUser))
	require.NoError(t, a.CreateUser("gus", "pw", auth.RoleGuest))
	require.NoError(t, engine.Create("orders", cfg))

	srv, err := New(cfg, logger.Nop(), metrics.New())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, l) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	return srv, l.Addr().String()
}

func dial(t *testing.T, addr string) *client {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	t.Cleanup(func() { conn.Close() })

	c := &client{t: t, conn: conn, r: bufio.NewReader(conn)}
	c.readPrompt()
	return c
}

func TestSessionFlow(t *testing.T) {
	_, addr := startServer(t, nil)
	c := dial(t, addr)

	assert.Equal(t, "ERR: "+string(NoAuth), c.send("OPEN orders"))
	assert.Equal(t, "ERR: invalid credentials", c.send("AUTH bob nope"))
	assert.Equal(t, "OK", c.send("AUTH bob pw"))

	assert.Equal(t, "ERR: "+string(NoPerm), c.send("OPEN orders"))
	assert.Equal(t, "ERR: "+string(NoDB), c.send("GET k"))

	c2 := dial(t, addr)
	require.Equal(t, "OK", c2.send("AUTH root toor"))
	require.Equal(t, "OK", c2.send("GRANTDB bob orders"))

	assert.Equal(t, "OK", c.send("OPEN orders"))
	assert.Equal(t, "OK", c.send("SET apple red"))
	assert.Equal(t, "red", c.send("get apple"))
	assert.Equal(t, "ERR: Key does not exist", c.send("GET pear"))
	assert.Equal(t, "ERR: Usage SET <key> <val>", c.send("SET only"))
	assert.Equal(t, "ERR: "+string(Unknown), c.send("FROB"))
	assert.Equal(t, "", c.send(""))

	assert.Equal(t, "OK", c.send("CLOSE"))
	assert.Equal(t, "ERR: "+string(NoDB), c.send("GET apple"))

	assert.Equal(t, string(Goodbye), c.send("EXIT"))
	_, err := c.r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSharedDatabase(t *testing.T) {
	srv, addr := startServer(t, nil)

	a := dial(t, addr)
	b := dial(t, addr)
	for _, c := range []*client{a, b} {
		require.Equal(t, "OK", c.send("AUTH root toor"))
		require.Equal(t, "OK", c.send("OPEN orders"))
	}
	assert.Equal(t, 2, srv.reg.refs("orders"))

	require.Equal(t, "OK", a.send("SET k v1"))
	assert.Equal(t, "v1", b.send("GET k"))

	assert.True(t, strings.HasPrefix(a.send("DROPDB orders"), "ERR: "))

	require.Equal(t, "OK", b.send("CLOSE"))
	assert.Equal(t, 1, srv.reg.refs("orders"))

	// dropping the database the session has open closes it first
	assert.Equal(t, "OK", a.send("DROPDB orders"))
	assert.True(t, strings.HasPrefix(a.send("OPEN orders"), "ERR: Failed to open db"))
}

func TestGuestIsReadOnly(t *testing.T) {
	_, addr := startServer(t, nil)

	su := dial(t, addr)
	require.Equal(t, "OK", su.send("AUTH root toor"))
	require.Equal(t, "OK", su.send("OPEN orders"))
	require.Equal(t, "OK", su.send("SET k v"))
	require.Equal(t, "OK", su.send("GRANTDB gus orders"))

	g := dial(t, addr)
	require.Equal(t, "OK", g.send("AUTH gus pw"))
	require.Equal(t, "OK", g.send("OPEN orders"))
	assert.Equal(t, "v", g.send("GET k"))
	assert.Equal(t, "ERR: "+string(NoPerm), g.send("SET k w"))
	assert.Equal(t, "ERR: "+string(NoPerm), g.send("CREATEUSER x y user"))
}

func TestUserAdmin(t *testing.T) {
	_, addr := startServer(t, nil)
	c := dial(t, addr)
	require.Equal(t, "OK", c.send("AUTH root toor"))

	assert.Equal(t, "ERR: Invalid Role", c.send("CREATEUSER eve pw admin"))
	assert.Equal(t, "OK", c.send("CREATEUSER eve pw user"))
	assert.Equal(t, "ERR: user already exists", c.send("CREATEUSER eve pw user"))
	assert.Equal(t, "OK", c.send("CREATEDB ledger"))
	assert.Equal(t, "OK", c.send("GRANTDB eve ledger"))

	e := dial(t, addr)
	require.Equal(t, "OK", e.send("AUTH eve pw"))
	assert.Equal(t, "OK", e.send("OPEN ledger"))

	assert.Equal(t, "OK", c.send("REVOKEDB eve ledger"))
	assert.Equal(t, "ERR: Cannot delete the current user", c.send("DELUSER root"))
	assert.Equal(t, "OK", c.send("DELUSER eve"))
	assert.Equal(t, "ERR: eve: user not found", c.send("DELUSER eve"))

	e2 := dial(t, addr)
	assert.Equal(t, "ERR: invalid credentials", e2.send("AUTH eve pw"))
}

func TestOpenRefusesPaths(t *testing.T) {
	srv, addr := startServer(t, nil)
	c := dial(t, addr)
	require.Equal(t, "OK", c.send("AUTH root toor"))

	for _, name := range []string{"./orders", "../orders", "orders/"} {
		resp := c.send("OPEN " + name)
		assert.True(t, strings.HasPrefix(resp, "ERR: Failed to open db: invalid database name"), resp)
		assert.Equal(t, 0, srv.reg.refs(name))
	}
	assert.Equal(t, "ERR: "+string(NoDB), c.send("GET k"))

	require.Equal(t, "OK", c.send("OPEN orders"))
	assert.Equal(t, 1, srv.reg.refs("orders"))
}

func TestRateLimit(t *testing.T) {
	_, addr := startServer(t, func(cfg *config.Config) { cfg.RateLimit = 0.001 })
	c := dial(t, addr)

	assert.Equal(t, "OK", c.send("AUTH root toor"))
	assert.Equal(t, "ERR: "+string(Throttled), c.send("AUTH root toor"))
}

func TestShutdownHangsUp(t *testing.T) {
	srv, addr := startServer(t, nil)
	c := dial(t, addr)
	require.Equal(t, "OK", c.send("AUTH root toor"))
	require.Equal(t, "OK", c.send("OPEN orders"))

	srv.Close()

	line, err := c.r.ReadString('\n')
	for err == nil && strings.TrimSpace(line) == "" {
		line, err = c.r.ReadString('\n')
	}
	if err == nil {
		assert.Equal(t, string(Shutdown), strings.TrimSpace(line))
	}

	require.Eventually(t, func() bool {
		return srv.reg.refs("orders") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
