// Package server exposes the flowset pipeline over HTTP.
//
// # Endpoints
//
//	GET  /healthz            liveness and build version
//	POST /v1/layout          lay out a document, respond with the JSON layout
//	POST /v1/render          lay out and render a document in one format
//
// The request body is the document itself. Its format comes from the
// input query parameter ("toml" or "json"), else from the Content-Type
// header, else TOML. Layout and render options are query parameters:
//
//	columns=2 gutter=12 balance=balance format=svg scale=2 debug=true tags=true refresh=true
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// with the error code from [errors.Code] and a user-facing message.
//
// Rendered artifacts go through the runner's cache, so a server started
// with a Redis or MongoDB cache shares results between instances.
package server
