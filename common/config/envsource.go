package config

import (
	"os"
	"strings"
)

type EnvSource struct{}

// LookupValue maps option names onto env vars, "warden.pq.host" is
// looked up as WARDEN_PQ_HOST. Empty env vars count as unset.
func (e *EnvSource) LookupValue(key string) (string, bool) {
	envKey := strings.ToUpper(strings.Replace(key, ".", "_", -1))
	v := os.Getenv(envKey)
	return v, v != ""
}

func (e *EnvSource) Name() string {
	return "env"
}
