package moderation

import (
	"sync"
	"time"
)

type muteLockKey struct {
	guildID int64
	userID  int64
}

var (
	muteLocks   = make(map[muteLockKey]bool)
	muteLocksmu sync.Mutex
)

// LockMemberMute serializes mute state changes for one member so a mute
// and an unmute racing each other can't interleave their transactions.
func LockMemberMute(guildID, userID int64) {
	key := muteLockKey{guildID: guildID, userID: userID}
	for {
		muteLocksmu.Lock()
		if l, ok := muteLocks[key]; !ok || !l {
			muteLocks[key] = true
			muteLocksmu.Unlock()
			return
		}
		muteLocksmu.Unlock()

		time.Sleep(time.Millisecond * 250)
	}
}

func UnlockMemberMute(guildID, userID int64) {
	muteLocksmu.Lock()
	delete(muteLocks, muteLockKey{guildID: guildID, userID: userID})
	muteLocksmu.Unlock()
}
