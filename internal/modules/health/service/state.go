package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected     atomic.Bool
	usingFallback   atomic.Bool
	lastRefreshUnix atomic.Int64 // unix seconds
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) SetUsingFallback(v bool) { s.usingFallback.Store(v) }
func (s *State) UsingFallback() bool     { return s.usingFallback.Load() }

func (s *State) TouchRefresh(t time.Time) { s.lastRefreshUnix.Store(t.Unix()) }
func (s *State) LastRefresh() time.Time {
	u := s.lastRefreshUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
