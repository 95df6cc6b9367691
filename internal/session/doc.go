// Package session keeps per-browser [models.Session] values server side, keyed by a random ID held in a cookie.
//
// A [Store] persists sessions: [MemoryStore] for a single process and [RedisStore] when sessions must survive
// restarts or be shared between instances. [Manager] ties a store to HTTP: its middleware loads the session
// into the request context, and handlers mutate it and call [Manager.Save] before writing a response.
package session
