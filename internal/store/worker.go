/*
file: respd/internal/store/worker.go
*/
package store

import (
	"context"
	"time"
)

// RunExpireWorker drives the single cooperative expire task: it waits
// for the earlier of the current heap head's deadline or an update
// notification, then drains every record whose
// deadline has passed, deleting the key only if the popped tag still
// matches the key's current incarnation — a stale record (superseded
// by PERSIST, a later EXPIRE, or any other tag-changing op) is
// silently discarded. It returns when ctx is canceled.
//
// onExpired, if non-nil, is called with the just-deleted key after
// each genuine (non-stale) removal, outside the store's lock — used
// by the logging and metrics layers in cmd/respd without coupling this
// package to either.
func RunExpireWorker(ctx context.Context, s *Store, onExpired func(key string)) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.Mu.Lock()
		deadline, has := s.expire.NextDeadline()
		s.Mu.Unlock()

		resetTimer(timer, deadline, has)

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.expire.UpdateCh():
		}

		expired := drainExpired(s, time.Now())
		if onExpired != nil {
			for _, key := range expired {
				onExpired(key)
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// resetTimer rearms timer to fire at deadline, or far in the future if
// the heap is currently empty (a never-firing timer, in effect).
func resetTimer(timer *time.Timer, deadline time.Time, has bool) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	if !has {
		timer.Reset(24 * time.Hour)
		return
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}

// drainExpired pops every due record and removes keys whose current
// tag still matches, returning the keys actually deleted. It acquires
// s.Mu for the whole drain.
func drainExpired(s *Store, now time.Time) []string {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	var removed []string
	for {
		exp, ok := s.expire.TryPop(now)
		if !ok {
			break
		}
		_, curTag, present := s.Get(exp.Key)
		if present && curTag == exp.Tag {
			s.Remove(exp.Key)
			removed = append(removed, exp.Key)
		}
		// else: stale record, superseded since it was scheduled — discard.
	}
	return removed
}
