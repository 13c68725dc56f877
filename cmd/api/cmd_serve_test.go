package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-control-api/pkg/config"
	"github.com/jhoicas/stock-control-api/pkg/jwt"
)

func TestServe_SinSecretoJWT_DevuelveError(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "error"

	err := serve(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrMissingSecret)
}
