// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import "github.com/google/uuid"

// EventKind classifies a store change event.
type EventKind int

const (
	// EventAdd fires when a node is registered.
	EventAdd EventKind = iota

	// EventUpdate fires when an Update detected at least one field change.
	EventUpdate

	// EventRemove fires when a node is unregistered.
	EventRemove
)

// String returns the event kind's wire name.
func (k EventKind) String() string {
	switch k {
	case EventAdd:
		return "add"
	case EventUpdate:
		return "update"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event describes one store change.
type Event struct {
	Kind EventKind
	ID   string
}

// Handler receives store change events. Handlers run synchronously on the
// mutating call; they must be cheap and must not mutate the store.
type Handler func(Event)

// Subscription identifies one registered handler.
type Subscription struct {
	token string
}

// Subscribe registers a change handler and returns its subscription.
func (s *Store) Subscribe(h Handler) Subscription {
	if h == nil {
		return Subscription{}
	}
	token := uuid.NewString()
	s.subs[token] = h
	return Subscription{token: token}
}

// Unsubscribe removes a handler. Unknown or zero subscriptions are
// ignored.
func (s *Store) Unsubscribe(sub Subscription) {
	delete(s.subs, sub.token)
}

func (s *Store) emit(ev Event) {
	for _, h := range s.subs {
		h(ev)
	}
}
