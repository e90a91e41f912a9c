package scheduler

import (
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler manages recurring background jobs (the alert sweep) on a
// cron timetable
type Scheduler struct {
	cron      *cron.Cron
	jobMap    map[string]cron.EntryID
	jobMapMux sync.RWMutex
}

// NewScheduler creates a scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobMap: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("SCHEDULER: Cron scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("SCHEDULER: Cron scheduler stopped")
}

// AddJob registers a named cron job, replacing any previous job with the
// same name
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	s.jobMapMux.Lock()
	defer s.jobMapMux.Unlock()
	if entryID, exists := s.jobMap[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobMap, name)
	}
	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		log.Printf("SCHEDULER: Failed to schedule job %s with cron '%s': %v", name, spec, err)
		return err
	}
	s.jobMap[name] = entryID
	log.Printf("SCHEDULER: Scheduled job %s with cron '%s' (entry ID: %d)", name, spec, entryID)
	return nil
}

// RemoveJob unschedules a named job
func (s *Scheduler) RemoveJob(name string) {
	s.jobMapMux.Lock()
	defer s.jobMapMux.Unlock()
	if entryID, exists := s.jobMap[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobMap, name)
		log.Printf("SCHEDULER: Removed job %s (entry ID: %d)", name, entryID)
	}
}

// JobCount returns the number of scheduled jobs
func (s *Scheduler) JobCount() int {
	s.jobMapMux.RLock()
	defer s.jobMapMux.RUnlock()
	return len(s.jobMap)
}
