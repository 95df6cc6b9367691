// Package server provides HTTP routing, middleware and the server lifecycle for the web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// The [BasicRouter] implementation registers routes on an [http.ServeMux] using method patterns
// ("GET /recommender"), so the mux answers 405 for a known path with the wrong method.
//
// [Middleware] added with [BasicRouter.Use] wraps the whole mux. The first added runs outermost.
// The web app installs, in order: [Recover], [NoCache], the metrics middleware and [Logging].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface and return their [Route] list, which keeps route
// definitions next to the code serving them.
//
// # Lifecycle
//
// [New] builds an [http.Server] with timeouts and [Run] serves until its context is cancelled, then
// drains in-flight requests for up to [ShutdownTimeout].
package server
