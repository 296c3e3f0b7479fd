package game

import (
	"time"

	"github.com/dom/card-chess/internal/scheduler"
)

// ClockManager owns the per-room tick timers for timed games. At most one
// timer exists per room.
type ClockManager struct {
	sched  scheduler.Scheduler
	warmup time.Duration
	tick   time.Duration
	onTick func(roomID string)
	timers map[string]*clockTimer
}

type clockTimer struct {
	handle scheduler.Handle
}

func NewClockManager(sched scheduler.Scheduler, warmup, tick time.Duration, onTick func(roomID string)) *ClockManager {
	return &ClockManager{
		sched:  sched,
		warmup: warmup,
		tick:   tick,
		onTick: onTick,
		timers: make(map[string]*clockTimer),
	}
}

// Start cancels any running timer for the room, waits for the warm-up and
// then ticks on every interval.
func (cm *ClockManager) Start(roomID string) {
	cm.Stop(roomID)

	t := &clockTimer{}
	cm.timers[roomID] = t
	t.handle = cm.sched.AfterFunc(cm.warmup, func() {
		if cm.timers[roomID] != t {
			return
		}
		t.handle = cm.sched.Every(cm.tick, func() {
			cm.onTick(roomID)
		})
	})
}

func (cm *ClockManager) Stop(roomID string) {
	t, ok := cm.timers[roomID]
	if !ok {
		return
	}
	t.handle.Stop()
	delete(cm.timers, roomID)
}

func (cm *ClockManager) Running(roomID string) bool {
	_, ok := cm.timers[roomID]
	return ok
}

func (cm *ClockManager) Len() int {
	return len(cm.timers)
}

func (cm *ClockManager) StopAll() {
	for id := range cm.timers {
		cm.Stop(id)
	}
}
