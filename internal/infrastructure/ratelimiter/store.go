package ratelimiter

import (
	"errors"
	"time"
)

var ErrStoreMiss = errors.New("store miss")

type Store interface {
	Get(key string) (int, error)
	Set(key string, value int) error
	SetWithExpiration(key string, value int, expiration time.Duration) error
	Close() error
}
