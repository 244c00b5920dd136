package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/common/backgroundworkers"
	"github.com/wardenbot/warden/feedback"
	"github.com/wardenbot/warden/kb"
	"github.com/wardenbot/warden/moderation"
	"github.com/wardenbot/warden/rolecommands"
	"github.com/wardenbot/warden/settings"
)

func main() {
	if err := common.CoreInit(true); err != nil {
		logrus.WithError(err).Fatal("Failed initializing core")
	}

	settings.RegisterPlugin()
	moderation.RegisterPlugin()
	rolecommands.RegisterPlugin()
	feedback.RegisterPlugin()
	kb.RegisterPlugin()

	// the store has to be at the version this build expects before any
	// request is served; a failed migration halts startup
	if err := common.RunMigrations(); err != nil {
		logrus.WithError(err).Fatal("Failed running schema migrations")
	}

	backgroundworkers.RunWorkers()

	logrus.Info("Warden store is up, version ", common.VERSION)

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sc
	logrus.Info("Received signal ", sig, ", shutting down...")

	var wg sync.WaitGroup
	backgroundworkers.StopWorkers(&wg)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 10):
		logrus.Error("Background workers did not stop in time")
	}
}
