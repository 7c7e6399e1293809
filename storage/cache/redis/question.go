// Package rediscache implements the question bank cache on Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

const questionsKey = "educare:journey:questions:v1"

// Open connects to the Redis server found at conf.Cache.RedisURL.
func Open(ctx context.Context, conf *core.Config) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(conf.Cache.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

type questionCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

var _ journey.QuestionCache = (*questionCache)(nil) // interface compliance check

func NewQuestionCache(rdb goredis.Cmdable, ttl time.Duration) *questionCache {
	return &questionCache{rdb: rdb, ttl: ttl}
}

func (c *questionCache) Get(ctx context.Context) ([]journey.Question, bool, error) {
	raw, err := c.rdb.Get(ctx, questionsKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "reading cached questions")
	}
	var questions []journey.Question
	if err = json.Unmarshal(raw, &questions); err != nil {
		return nil, false, errors.Wrap(err, "decoding cached questions")
	}
	return questions, true, nil
}

func (c *questionCache) Set(ctx context.Context, questions []journey.Question) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return errors.Wrap(err, "encoding questions")
	}
	return errors.Wrap(c.rdb.Set(ctx, questionsKey, raw, c.ttl).Err(), "caching questions")
}

func (c *questionCache) Invalidate(ctx context.Context) error {
	return errors.Wrap(c.rdb.Del(ctx, questionsKey).Err(), "invalidating cached questions")
}
