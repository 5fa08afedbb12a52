// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds per-UI-session state that used to live in ambient
// module globals: measured-stock overrides entered but not yet reloaded, and
// the set of machines picked for the day's forms. Each session owns its own
// state, so concurrent sessions (and tests) cannot contaminate each other.
package session

import "sync"

// Session is the explicit state of one data-entry session.
type Session struct {
	mu        sync.Mutex
	overrides map[string]map[string]float64 // date -> resource -> measured quantity
	selected  map[string]bool               // machine codes in use on the active form
}

func New() *Session {
	return &Session{
		overrides: make(map[string]map[string]float64),
		selected:  make(map[string]bool),
	}
}

// SetOverride records an in-session measured stock value. It wins over the
// persisted checkpoint for display until the session reloads; the persisted
// checkpoint remains the durable source of truth.
func (s *Session) SetOverride(date, resource string, qty float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overrides[date] == nil {
		s.overrides[date] = make(map[string]float64)
	}
	s.overrides[date][resource] = qty
}

// Override returns the in-session measured value for (date, resource), if any.
func (s *Session) Override(date, resource string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, ok := s.overrides[date][resource]
	return qty, ok
}

// ClearOverrides drops all in-session measured values, typically when the
// session reloads from the store.
func (s *Session) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]map[string]float64)
}

// SelectMachine marks a machine as active on the current form.
func (s *Session) SelectMachine(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[code] = true
}

// DeselectMachine removes a machine from the current form.
func (s *Session) DeselectMachine(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, code)
}

// SelectedMachines returns the machine codes currently on the form.
func (s *Session) SelectedMachines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.selected))
	for code := range s.selected {
		codes = append(codes, code)
	}
	return codes
}
