/*
file: respd/internal/diag/diag.go
*/
// Package diag runs a periodic host-memory and keyspace-size report,
// pushed on a timer into the log and into metrics rather than waiting
// for a client to ask for it.
package diag

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"

	"github.com/akashmaji946/respd/internal/metrics"
	"github.com/akashmaji946/respd/internal/store"
)

const interval = 30 * time.Second

// Run logs host memory usage and current keyspace size every interval
// until ctx is canceled. It also keeps metrics.KeyspaceSize current,
// since nothing else in the command path has a reason to set it on
// every write.
func Run(ctx context.Context, s *store.Store, log *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(s, log)
		}
	}
}

func report(s *store.Store, log *logrus.Logger) {
	s.Mu.Lock()
	keys := s.Len()
	s.Mu.Unlock()

	metrics.KeyspaceSize.Set(float64(keys))

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.WithError(err).Warn("diag: failed to read host memory stats")
		return
	}

	log.WithFields(logrus.Fields{
		"keys":            keys,
		"mem_used_bytes":  vm.Used,
		"mem_total_bytes": vm.Total,
		"mem_used_pct":    vm.UsedPercent,
	}).Info("diag: periodic report")
}
