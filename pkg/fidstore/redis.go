package fidstore

import (
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const frameworkIDKey = "Framework:Id"

// RedisStore persists the framework id in redis, keyed per framework name so
// several frameworks can share one instance.
type RedisStore struct {
	db  redis.UniversalClient
	key string
}

func NewRedisStore(db redis.UniversalClient, frameworkName string) *RedisStore {
	return &RedisStore{db: db, key: frameworkIDKey + ":" + frameworkName}
}

func (s *RedisStore) Get() (string, error) {
	id, err := s.db.Get(s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "reading framework id from redis")
	}
	return id, nil
}

func (s *RedisStore) Set(id string) error {
	return errors.Wrap(s.db.Set(s.key, id, 0).Err(), "persisting framework id to redis")
}

func (s *RedisStore) Clear() error {
	return errors.Wrap(s.db.Del(s.key).Err(), "removing framework id from redis")
}
