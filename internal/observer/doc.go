// Package observer provides typed publish/subscribe registries.
//
// A Registry delivers each published value to every subscriber in
// subscription order. Subscribers are invoked outside the registry lock, so a
// callback may subscribe, unsubscribe or publish without deadlocking. A
// Behavior additionally remembers the last value and replays it to new
// subscribers, which suits state such as "connected" or "last error".
package observer
