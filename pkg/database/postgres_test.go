package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ctt-evolver/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5433, User: "solver", Password: "secret", Name: "ctt"}
	assert.Equal(t, "host=db port=5433 user=solver password=secret dbname=ctt sslmode=disable", DSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")
}
