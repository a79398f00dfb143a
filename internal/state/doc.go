// Package state provides the thread-safe snapshot container shared by the
// session, cart and wishlist stores.
//
// # Overview
//
// Each store owns exactly one Store[T]. Operations on the owning store are the
// only writers; views read snapshots and subscribe for changes.
//
//	Writer (cart.Store):            Readers (views):
//	┌──────────────────┐            ┌──────────────────┐
//	│ api response     │            │                  │
//	│      ↓           │            │                  │
//	│ Update(fn)       │──(mutex)──→│ Snapshot()       │
//	│      ↓           │            │ Subscribe(fn)    │
//	│ notify copies    │───────────→│ re-render        │
//	└──────────────────┘            └──────────────────┘
//
// # Concurrency Model
//
//   - Update(): holds the write lock only while fn runs; no network I/O
//     happens under the lock
//   - Snapshot(): read lock, returns a clone
//   - Notifications run after the lock is released, so a subscriber may call
//     Snapshot or other stores freely
//
// Every notification carries the snapshot current at delivery time, so when
// two Updates overlap the last value a subscriber sees is the stored one.
//
// View runs a function against the stored value without cloning, for O(1)
// lookups such as wishlist membership.
//
// # Response Ordering
//
// Sequencer decides whether an API response may still be applied. Tickets are
// issued when a request is sent; Admit runs inside Update when the response
// arrives. Reset starts a new epoch when the session ends, so a response in
// flight at logout can never repopulate the store. Ordering selects between
// keeping every response in arrival order and dropping those overtaken by a
// newer request.
//
// # Defensive Copying
//
// The clone function passed to New runs on every value entering or leaving the
// store. Stores holding slices or maps pass a deep copy; the notified copy is
// independent of the stored one.
package state
