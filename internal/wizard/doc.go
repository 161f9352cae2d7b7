// Package wizard drives the three-step dataset creation flow.
//
// A Manager owns the session store and the collaborators each step needs:
// directory scanning for step 1, metadata editing for step 2, and the
// finalize/validate/publish actions of step 3. Step navigation is guarded by
// the completeness gate: a later step opens only once every earlier step is
// complete or was already visited, while going back is always allowed.
//
// All mutation for a given session is serialized through a per-session
// mutex, so concurrent UI events cannot interleave partial updates.
package wizard
