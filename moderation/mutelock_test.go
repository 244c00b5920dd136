package moderation

import (
	"sync"
	"testing"
)

func TestMuteLockSerializes(t *testing.T) {
	const guildID, userID = 1, 2

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			LockMemberMute(guildID, userID)
			counter++
			UnlockMemberMute(guildID, userID)
		}()
	}

	wg.Wait()
	if counter != 10 {
		t.Errorf("counter = %d, want 10", counter)
	}
}

func TestMuteLockIndependentMembers(t *testing.T) {
	LockMemberMute(1, 2)
	defer UnlockMemberMute(1, 2)

	done := make(chan struct{})
	go func() {
		LockMemberMute(1, 3)
		UnlockMemberMute(1, 3)
		close(done)
	}()

	<-done
}
