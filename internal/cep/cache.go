package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solarintake/pkg/types"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCacheTTL = 24 * time.Hour

	// keyPrefix namespaces cached lookups in Redis.
	keyPrefix = "solarintake:cep:"
)

type Lookuper interface {
	Lookup(ctx context.Context, code string) (*types.AddressLookup, error)
}

// CachedLookuper keeps successful lookups in Redis. Cache errors are logged
// and the upstream lookup is used instead.
type CachedLookuper struct {
	next   Lookuper
	rdb    *redis.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCachedLookuper(next Lookuper, rdb *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *CachedLookuper {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedLookuper{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedLookuper) Lookup(ctx context.Context, code string) (*types.AddressLookup, error) {
	code = Digits(code)
	if len(code) != 8 {
		return nil, ErrInvalidCode
	}

	key := fmt.Sprintf("%s%s", keyPrefix, code)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var address types.AddressLookup
		if err := json.Unmarshal(cached, &address); err == nil {
			return &address, nil
		}
		c.logger.WithField("cep", code).Warn("discarding unreadable cached postal code")
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("cep", code).Warn("postal code cache read failed")
	}

	address, err := c.next.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(address)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.WithError(err).WithField("cep", code).Warn("postal code cache write failed")
	}

	return address, nil
}
