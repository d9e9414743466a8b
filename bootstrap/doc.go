// Package bootstrap wires the todo service together.
//
// It owns process startup and shutdown: the logger, configuration (including
// .env loading and secret resolution), the MongoDB connection, the tracer
// provider, the optional Redis rate limit counter and the HTTP API server.
//
// Usage:
//
//	app, err := bootstrap.NewApp(ctx)
//	if err != nil {
//	    // connection failures land here; exit non-zero
//	}
//	if err := app.Start(ctx); err != nil {
//	    // handle error
//	}
//	err = app.WaitForShutdown()
//	app.Shutdown()
//
// The HTTP listener is only opened once the store has answered a ping.
package bootstrap
