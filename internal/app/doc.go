// Package app is the composition root of tote.
//
// # Overview
//
// Run loads configuration and preferences, opens the structured log file,
// wires every store behind the terminal UI and blocks until the user quits or
// the context is cancelled. New and Start are exported separately so tests and
// alternative front ends can build the same graph without a terminal.
//
// # Wiring
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()         ~/.config/tote/config.toml
//	       ├─────> prefs.Load()          theme, page size, sort
//	       ├─────> New()
//	       │        ├─> storage          file | memory | redis
//	       │        ├─> events.Bus       out-of-band signals
//	       │        ├─> api.AuthGuard    clears storage on 401
//	       │        ├─> session.Store    token source for api.Client
//	       │        ├─> api.Client
//	       │        ├─> cart.Store, wishlist.Store
//	       │        └─> checkout.Service
//	       ├─────> Start()
//	       │        ├─> session resolve, then follow the bus
//	       │        ├─> StartWatcher()   storage → StorageChanged
//	       │        └─> verifySession()  optional, background
//	       └─────> ui.Run()              blocks
//
// # Cross-Process Changes
//
// The file backend is polled at storage.watch_interval; the redis backend
// pushes changes over pub/sub. Either way the watcher publishes
// events.StorageChanged and the session store rereads storage. The memory
// backend has no watcher.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Storage backend cannot be opened
//   - Log file cannot be created
//
// Recoverable errors (logged):
//   - Token verification failures other than a rejection
//   - Watcher failures after the backend goes away
//
// A rejected token at startup is torn down through the same path as any
// other 401, so the UI starts on the sign-in view.
package app
