// Package rate limita la frecuencia de requests por key. Blinda el
// endpoint público de verificación contra enumeración de tokens: la
// key se arma con VerifyKey y cada denegación queda contada en
// Prometheus.
package rate

import (
	"context"
	"strconv"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/certhub/internal/metrics"
)

// Result es la decisión sobre un intento: cuántos quedan en la ventana
// y, si se denegó, cuánto esperar antes de reintentar.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// VerifyKey arma la key del límite del endpoint público de
// verificación a partir de la IP del cliente.
func VerifyKey(clientIP string) string {
	return "verify:" + strings.ReplaceAll(clientIP, " ", "_")
}

// RedisLimiter: fixed window sobre INCR+EXPIRE, para correr varias
// réplicas detrás del mismo límite.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "certhub:rl:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	bucket := l.prefix + key + ":" + strconv.FormatInt(now.Truncate(l.window).Unix(), 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	ttl := pipe.TTL(ctx, bucket)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	// La primera del bucket fija la expiración de la ventana.
	if incr.Val() == 1 {
		_ = l.client.Expire(ctx, bucket, l.window).Err()
		ttl = l.client.TTL(ctx, bucket)
	}

	hits := incr.Val()
	res := Result{
		Allowed:   hits <= l.max,
		Remaining: remaining(l.max, hits),
	}
	if !res.Allowed {
		res.RetryAfter = ttl.Val()
		if res.RetryAfter < 0 {
			res.RetryAfter = l.window
		}
		metrics.VerifyThrottled.Inc()
	}
	return res, nil
}

func remaining(max, hits int64) int64 {
	if hits >= max {
		return 0
	}
	return max - hits
}
