package acquisition

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const daemonInterval = time.Second

// Daemon supervises a scheduler: it starts the cycle loop if it is not
// running and reports error-state streaks while recovery is in progress.
// Returns when ctx ends.
func Daemon(ctx context.Context, s *Scheduler) {
	streak := 0
	t := time.NewTicker(daemonInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if !s.Running() {
			log.Infoln("scheduler not running, starting")
			if err := s.Start(); err != nil {
				log.Errorln(err)
			}
			continue
		}

		if s.Faulted() {
			streak++
			if streak == 1 || streak%10 == 0 {
				log.Warnf("scheduler faulted for %ds, recovery in progress", streak)
			}
		} else {
			streak = 0
		}
	}
}
