package config

import (
	"strings"

	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"
)

// RedisConfigStore reads overrides from the warden_config hash, letting
// operators flip options fleet-wide without restarting every node. Keys
// are stored without the "warden." prefix.
type RedisConfigStore struct {
	Pool *radix.Pool
}

func (rs *RedisConfigStore) LookupValue(key string) (string, bool) {
	var v string
	err := rs.Pool.Do(radix.Cmd(&v, "HGET", "warden_config", rs.hashField(key)))
	if err != nil {
		logrus.WithError(err).Error("[redis_config_source] failed retrieving value")
		return "", false
	}

	return v, v != ""
}

func (rs *RedisConfigStore) SaveValue(key, value string) error {
	return rs.Pool.Do(radix.Cmd(nil, "HSET", "warden_config", rs.hashField(key), value))
}

func (rs *RedisConfigStore) hashField(key string) string {
	return strings.TrimPrefix(key, "warden.")
}

func (rs *RedisConfigStore) Name() string {
	return "redis"
}
