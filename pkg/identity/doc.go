// Package identity holds the person records collected during a run and the
// merge engine that keeps exactly one record per person.
//
// A person can be sighted several times: once per engagement category, and
// repeatedly across re-renders of the same list. Sightings are reconciled in
// three steps:
//
//   - URL equality: a URL already owned by a live record redirects the
//     sighting to that record, whatever key the caller derived.
//   - Canonical key: CanonicalKey prefers an opaque profile identifier found
//     in the markup around a link over the URL slug.
//   - Name fingerprint: records whose display names normalize to the same
//     fingerprint are merged into one keeper.
//
// Two different people sharing a display name also share a fingerprint and
// end up as one record. Stricter matching would need a signal the surface
// does not expose.
//
// Usage:
//
//	store := identity.NewStore(identity.WithLimit(2000))
//	outcome, err := store.Upsert(identity.Sighting{
//	    Key:      identity.CanonicalKey(contexts, url),
//	    URL:      url,
//	    Category: identity.Reactor,
//	    Name:     "Jane Doe",
//	})
//
// A Store is owned by a single run and is not safe for concurrent use.
package identity
