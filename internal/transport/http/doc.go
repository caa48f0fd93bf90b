// Package http contains the HTTP transport layer: chi handlers that
// decode and validate requests, delegate to the service layer, and render
// responses. Errors are rendered as RFC 7807 problem details; handlers
// never encode business rules themselves.
package http
