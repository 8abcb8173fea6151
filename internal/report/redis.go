package report

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/sugawarayuuta/sonnet"
)

// Redis publishes the latest iteration under Key (expiring after TTL) and
// keeps the last History cycles in the list Key+":history".
type Redis struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	history int64
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
	History  int
}

func NewRedis(opts RedisOptions) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if opts.Key == "" {
		opts.Key = "arbitr:cycles"
	}
	return &Redis{client: rdb, key: opts.Key, ttl: opts.TTL, history: int64(opts.History)}
}

type historyRow struct {
	At           time.Time `json:"at"`
	Path         string    `json:"path"`
	ProfitFactor float64   `json:"profit_factor"`
	ProfitPct    float64   `json:"profit_pct"`
}

func (r *Redis) Name() string { return "redis" }

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Report(ctx context.Context, it Iteration) error {
	latest, err := sonnet.Marshal(ViewIteration(it))
	if err != nil {
		return err
	}
	rows := make([]interface{}, 0, len(it.Cycles))
	for _, c := range it.Cycles {
		v := View(c)
		b, err := sonnet.Marshal(historyRow{At: it.At, Path: v.Path, ProfitFactor: v.ProfitFactor, ProfitPct: v.ProfitPct})
		if err != nil {
			return err
		}
		rows = append(rows, b)
	}
	historyKey := r.key + ":history"
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, latest, r.ttl)
		if len(rows) > 0 {
			pipe.LPush(ctx, historyKey, rows...)
			if r.history > 0 {
				pipe.LTrim(ctx, historyKey, 0, r.history-1)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
