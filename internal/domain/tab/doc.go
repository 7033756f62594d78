// Package tab holds the ordered collection of preview tabs for one session.
//
// The store is an ordered arena: a map keyed by tab id for O(1) lookup and
// an insertion-order slice driving iteration and neighbor selection when a
// tab closes. Ids come from a strictly increasing counter and are never
// reused, even after the owning tab closes.
//
// The store is never observably empty: closing the last tab creates a
// fresh unbound replacement before the operation returns, and the active
// id always names an existing tab.
package tab
