package common

import (
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/mediocregopher/radix/v3"
)

var ErrMaxLockAttemptsExceeded = errors.New("max lock attempts exceeded")

// TryLockRedisKey attempts to grab the lock, which expires after maxDur
// seconds so a crashed holder can't wedge the fleet.
func TryLockRedisKey(key string, maxDur int) (bool, error) {
	var resp string
	err := RedisPool.Do(radix.Cmd(&resp, "SET", key, "1", "NX", "EX", strconv.Itoa(maxDur)))
	if err != nil {
		return false, errors.WithStackIf(err)
	}

	return resp == "OK", nil
}

// BlockingLockRedisKey blocks until it succeeded to lock the key, or
// maxTryDuration passed (0 means try forever).
func BlockingLockRedisKey(key string, maxTryDuration time.Duration, maxLockDur int) error {
	started := time.Now()
	sleepDur := time.Millisecond * 100
	maxSleep := time.Second
	for {
		if maxTryDuration != 0 && time.Since(started) > maxTryDuration {
			return ErrMaxLockAttemptsExceeded
		}

		locked, err := TryLockRedisKey(key, maxLockDur)
		if err != nil {
			return err
		}

		if locked {
			return nil
		}

		time.Sleep(sleepDur)
		sleepDur *= 2
		if sleepDur > maxSleep {
			sleepDur = maxSleep
		}
	}
}

func UnlockRedisKey(key string) {
	RedisPool.Do(radix.Cmd(nil, "DEL", key))
}
