// Package middleware provides the HTTP middleware of the switchboard API:
// request IDs, access logging, panic recovery and request deadlines.
//
// The recommended order, outermost first, is:
//
//	handler = middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logging(logger),
//	    middleware.Recovery(logger),
//	    middleware.Timeout(15*time.Second),
//	)
package middleware
