// Package api provides the REST client for the admin backend.
//
// Endpoints (relative to the configured base URL):
//   - GET   /analytics?period={week|month|year|all}
//   - GET   /analytics/all
//   - GET   /users?page&page_size&query&role&status
//   - PATCH /users/status
//   - POST  /auth/login
//   - POST  /auth/logout
//
// GET requests are retried with jittered exponential backoff on 5xx and 429.
// Mutating requests are sent once.
package api
