package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisInterpAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// redisInterpRateLimiter aplica una ventana fija alineada a epoch: cada clave
// incluye el indice de ventana, asi todas las instancias cuentan sobre el
// mismo bucket y la cuota se resetea en un corte predecible. La cuota es por
// usuario y por proveedor (scope), para que cambiar de proveedor no herede
// consumo ajeno.
type redisInterpRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	scope  string
	now    func() time.Time
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisInterpretationRateLimiter crea un rate limiter respaldado en Redis,
// compartible entre instancias del servicio. scope identifica al proveedor de
// interpretacion cuya cuota se administra.
func NewRedisInterpretationRateLimiter(client *redis.Client, scope string, window time.Duration, max int) InterpretationRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		scope = "default"
	}
	return &redisInterpRateLimiter{
		client: client,
		window: window,
		max:    max,
		scope:  scope,
		now:    time.Now,
	}
}

func (l *redisInterpRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	bucket := l.now().UTC().Unix() / int64(seconds)
	redisKey := fmt.Sprintf("interp:rl:%s:%s:%d", l.scope, normalizedKey, bucket)

	// TTL doble: el bucket expirado sobrevive una ventana mas y luego Redis
	// lo limpia solo.
	count, err := l.client.Eval(ctx, redisInterpAllowScript, []string{redisKey}, 2*seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
