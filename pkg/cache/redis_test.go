package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ctt-evolver/pkg/config"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, "cache:6380", Addr(config.RedisConfig{Host: "cache", Port: 6380}))
}
