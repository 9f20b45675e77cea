package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// incrScript starts the window on the first hit of a key.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter 基于 redis 计数的固定窗口限流，多个实例共享计数。
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(url string, limit int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisLimiter{
		client: redis.NewClient(opt),
		limit:  limit,
		window: window,
		prefix: "hiring:ratelimit:",
	}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := incrScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(l.limit), nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter 进程内的固定窗口限流，未配置 redis 时使用。
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*memoryWindow
	now     func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		windows: map[string]*memoryWindow{},
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		// drop expired windows while the lock is held
		for k, old := range l.windows {
			if !now.Before(old.resetAt) {
				delete(l.windows, k)
			}
		}
		w = &memoryWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, nil
}

// RateLimit 按客户端IP限流。limiter 出错时放行。
func RateLimit(limiter Limiter, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		xl := c.MustGet(model.XLogKey).(*xlog.Logger)
		key := name + ":" + c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			xl.Warnf("rate limiter unavailable, error %v", err)
			return
		}
		if !allowed {
			xl.Infof("rate limit exceeded for %s", key)
			abort(c, model.NewResponseErrorTooManyRequests(), xl.ReqId)
		}
	}
}
