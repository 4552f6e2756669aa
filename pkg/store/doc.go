// Package store implements the in-memory key/value bag behind a session.
//
// Values are addressed by dotted paths ("user.age"), normalized through package codec on
// the way in, and encoded back through it on the way out. The store remembers whether any
// mutating call ran (Set, Unset, Merge, Clear, Pull, Increment, Decrement) so the session
// can choose between rewriting the record and merely extending its lifetime.
//
// Before persistence nil values and empty objects or arrays are pruned, so an emptied store
// always encodes to "{}".
//
//	s := store.Parse(payload) // never fails, corrupt payloads give an empty store
//	_ = s.Set("user.username", "virk")
//	age := s.Get("user.age", 0)
//	if s.HasBeenModified() {
//	    payload, _ = s.Encode()
//	}
package store
