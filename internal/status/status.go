// Package status prints run progress lines.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"github.com/tochemey/goakt/v3/log"
)

// Format renders p as
//
//	Time 0:01:05 | Step: 120000 | TPS: 1843.113 | ETR: 0:03:16
//
// ETR is 0:00:00 while the throughput is unknown.
func Format(p simulation.Progress) string {
	return fmt.Sprintf("Time %s | Step: %d | TPS: %.3f | ETR: %s",
		clock(p.Elapsed), p.Step, p.TPS, clock(p.Remaining()))
}

// clock formats d as H:MM:SS, truncated to whole seconds.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}

// LogReporter writes each report synchronously to a logger.
type LogReporter struct {
	Logger log.Logger
}

var _ simulation.StatusSink = LogReporter{}

func (r LogReporter) Report(_ context.Context, p simulation.Progress) error {
	r.Logger.Info(Format(p))
	return nil
}
