// Package connection implements the live analytics channel.
//
// The package has two layers:
//   - Client wraps a single gorilla/websocket connection: dial with bearer
//     auth, a read loop feeding a buffered message channel, and a heartbeat
//     that detects stale connections.
//   - Channel owns one Client at a time and runs the reconnect state machine:
//     exponential backoff (1s, 2s, 4s, 8s, 16s), at most five attempts, a
//     generation counter that invalidates stale retry timers, and a session
//     check before every retry.
//
// Inbound frames are forwarded in arrival order to a MessageHandler.
// Connectivity and error text are published through observer registries.
package connection
