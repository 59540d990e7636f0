package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = "memory://"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.BcryptCost = bcrypt.MinCost
	return c
}

func TestNewApp_RejectsUnknownDSN(t *testing.T) {
	c := testConfig()
	c.DatabaseDSN = "mysql://nope"
	_, err := NewApp(c, logging.Nop())
	assert.Error(t, err)
}

func TestPrepare_SeedsAdminOnce(t *testing.T) {
	app, err := NewApp(testConfig(), logging.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, app.prepare(ctx))
	require.NoError(t, app.prepare(ctx))

	list, err := app.repomanager.Users().List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, config.DefaultAdminUsername, list[0].Username)
	assert.False(t, list[0].Disabled)

	tokens, err := app.userService.Login(ctx, config.DefaultAdminUsername, config.DefaultAdminPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(testConfig(), logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancellation")
	}
}

func TestRun_ReturnsErrorWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	c := testConfig()
	c.EndpointAddrHTTP = ln.Addr().String()
	app, err := NewApp(c, logging.Nop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("app kept running although the listen address was taken")
	}
}
