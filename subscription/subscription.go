// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package subscription implements Subscription: a cancel-token value
// carrying a single idempotent cancel action, combinable with others.
package subscription

import "sync"

// Subscription carries a single idempotent cancel action.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// New wraps cancel so it is invoked at most once.
func New(cancel func()) *Subscription {
	if cancel == nil {
		cancel = func() {}
	}
	return &Subscription{cancel: cancel}
}

// Cancel invokes the underlying cancel action exactly once, regardless of
// how many times Cancel is called.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Combined returns a Subscription whose Cancel cancels every subscription
// in subs, in order.
func Combined(subs ...*Subscription) *Subscription {
	return New(func() {
		for _, s := range subs {
			s.Cancel()
		}
	})
}

// Noop returns a Subscription whose Cancel does nothing.
func Noop() *Subscription {
	return New(func() {})
}
