package moderation

import (
	"sync"
	"time"
)

// MuteExpiredHandler is invoked for every mute found past its expiry.
// The surrounding service sets this to the function that performs the
// platform side of the unmute (role edits) and then calls UnmuteMember.
// If it stays nil the worker only logs what it finds.
var MuteExpiredHandler func(mute *MemberMute)

const muteExpiryScanInterval = time.Minute

// RunBackgroundWorker periodically scans for expired mutes.
func (p *Plugin) RunBackgroundWorker() {
	ticker := time.NewTicker(muteExpiryScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.checkExpiredMutes()
		case <-p.stopWorkers:
			return
		}
	}
}

func (p *Plugin) StopBackgroundWorker(wg *sync.WaitGroup) {
	close(p.stopWorkers)
	wg.Done()
}

func (p *Plugin) checkExpiredMutes() {
	expired, err := MutesExpiringBefore(time.Now())
	if err != nil {
		logger.WithError(err).Error("failed scanning for expired mutes")
		return
	}

	for _, mute := range expired {
		if MuteExpiredHandler == nil {
			logger.WithField("guild", mute.GuildID).WithField("user", mute.UserID).
				Info("mute expired, no handler registered")
			continue
		}

		MuteExpiredHandler(mute)
	}
}
