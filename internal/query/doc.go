// Package query coordinates remote fetches for the views.
//
// # Overview
//
// A Client maps a Key (an ordered tuple such as {"leads"} or
// {"leadDetails", int64(7)}) to an entry holding the latest State for that
// resource. Views do not fetch directly: they Ensure a key, hand over a
// FetchFunc, and read the resulting Subscription.
//
//	sub := qc.Ensure(query.Key{"leads"}, fetchLeads, true)
//	defer sub.Close()
//	for st := range sub.Changes() {
//		render(st)
//	}
//
// # Lifecycle
//
//	idle ──Ensure(enabled)──▶ loading ──ok──▶ success
//	                             │  ▲             │
//	                           fail │ Invalidate / Refetch / stale Ensure
//	                             ▼  │             │
//	                           error ◀────fail────┘
//
// An entry that is already loading is joined rather than fetched again, so
// any number of concurrent Ensure calls for one key cause a single request.
// Invalidate on a loading entry does not start a second request either: the
// entry is marked stale and fetched once more after the running fetch
// settles, so a key never has more than one fetch in flight. Each fetch is
// tagged with a generation taken from a client-wide counter; a result only
// lands when its generation is still the entry's latest, so the late result
// of an entry that was removed and recreated is dropped without a
// notification.
//
// A failed fetch records the classified Error but keeps the previous
// payload, so a view can go on showing the last good data next to the
// failure. Nothing is retried automatically: Ensure on a failed entry, or
// Subscription.Refetch, starts the next attempt.
//
// # Notifications
//
// Every Subscription owns a one-slot Changes channel. Delivery never blocks
// the coordinator: a newer state replaces an unread older one, and states
// arrive in order for each subscriber. A new subscriber immediately gets the
// entry's current state.
//
// # Eviction
//
// Entries outlive their subscribers. Options.OnIdle reports when an entry
// loses its last subscriber and Client.Remove drops such an entry;
// Options.GCAfter wires the two together with a timer. Both are off by
// default.
package query
