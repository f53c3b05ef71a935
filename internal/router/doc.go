// Package router decodes inbound channel frames and dispatches them to
// typed observer registries.
//
// Frames are decoded at the boundary into one of the Inbound variants
// (AnalyticsUpdate, Notification, Pong, ServerError, Unknown). Anything that
// cannot be decoded becomes a *DecodeError and results in exactly one
// "Invalid message format" publication on the shared error registry.
//
// When started, frames are queued and dispatched by a single goroutine in
// arrival order.
package router
