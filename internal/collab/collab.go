/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package collab holds the narrow interfaces the engine shares with its host
// application: who is logged in, which requirements exist, how destructive
// actions are confirmed and where save/proceed signals go.
package collab

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"wireframer/internal/domain"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	// AlwaysConfirm approves every prompt.
	AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })
	// NeverConfirm declines every prompt.
	NeverConfirm Confirmer = ConfirmFunc(func(string) bool { return false })
)

// PromptConfirmer asks on Out and reads a y/N answer from In.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer

	once sync.Once
	r    *bufio.Reader
}

func (p *PromptConfirmer) Confirm(prompt string) bool {
	p.once.Do(func() { p.r = bufio.NewReader(p.In) })
	if p.Out != nil {
		_, _ = fmt.Fprintf(p.Out, "%s [y/N]: ", prompt)
	}
	line, err := p.r.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// UserContext exposes the authenticated user as a read-only snapshot.
type UserContext interface {
	Current() domain.User
	Subscribe(fn func(domain.User)) (cancel func())
}

// UserSession is an injected UserContext whose user can be replaced by the
// host. Subscribers are notified synchronously on Set.
type UserSession struct {
	mu   sync.Mutex
	user domain.User
	subs map[int]func(domain.User)
	next int
}

func NewUserSession(u domain.User) *UserSession {
	return &UserSession{user: u, subs: map[int]func(domain.User){}}
}

func (s *UserSession) Current() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Set replaces the current user and notifies subscribers.
func (s *UserSession) Set(u domain.User) {
	s.mu.Lock()
	s.user = u
	fns := make([]func(domain.User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

func (s *UserSession) Subscribe(fn func(domain.User)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// RequirementCatalog lists the requirements a component may reference.
type RequirementCatalog interface {
	Requirements() []domain.Requirement
}

// StaticRequirements is a fixed RequirementCatalog.
type StaticRequirements []domain.Requirement

func (s StaticRequirements) Requirements() []domain.Requirement {
	return append([]domain.Requirement(nil), s...)
}

// FindRequirement looks up a requirement by id in cat.
func FindRequirement(cat RequirementCatalog, id string) (domain.Requirement, bool) {
	if cat == nil {
		return domain.Requirement{}, false
	}
	for _, r := range cat.Requirements() {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Requirement{}, false
}

// Signals receives notifications after an explicitly confirmed save.
type Signals interface {
	SaveCompleted()
	ProceedToNextStep()
}

// SignalFuncs adapts optional callbacks to Signals.
type SignalFuncs struct {
	OnSaveCompleted func()
	OnProceed       func()
}

func (s SignalFuncs) SaveCompleted() {
	if s.OnSaveCompleted != nil {
		s.OnSaveCompleted()
	}
}

func (s SignalFuncs) ProceedToNextStep() {
	if s.OnProceed != nil {
		s.OnProceed()
	}
}
