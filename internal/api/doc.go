// Package api provides the HTTP server for NB Core.
//
// Routes:
//
//	GET  /ricette/            recipe list, filtered by repeated ?ingredienti=
//	POST /auth/register/      create an account, returns its token
//	POST /auth/login/         exchange email and password for the token
//	GET  /auth/me/            current user (Authorization: Token <key>)
//	POST /ai/recipes/         placeholder, handled by the client app
//	POST /ai/tips/            placeholder
//	POST /ai/complements/     placeholder
//	POST /ai/suggestions/     placeholder
//	GET  /health              liveness and database check
//	GET  /metrics             Prometheus metrics
//
// Every route is also served without its trailing slash.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	srv, err := api.New(deps)
//	err = srv.Serve(ctx) // returns after ctx is cancelled and requests drain
package api
