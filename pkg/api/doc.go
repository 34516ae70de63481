// Package api defines the records shared by the oauthfilter packages:
// client applications (consumers), the tokens they own, and the JSON
// error envelope written by the HTTP layer.
//
// The package performs no I/O. Records are owned by the storage layer;
// the authentication pipeline only holds read-only references to them for
// the duration of a single request.
//
// Core types:
//   - [Consumer]: a registered client application identified by its key
//   - [Token]: an access or request token owned by exactly one consumer
//   - [APIError]: structured error with type and message
package api
