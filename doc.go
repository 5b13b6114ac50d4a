// Package courier holds the client side session core of the delivery
// management product: who is logged in, as which role, with which token.
//
// Session lifecycle:
//   - SessionMachine is a small hierarchical state machine (idle, restoring,
//     unauthenticated, logging in, authenticated.admin/staff, logging out).
//     Construct it once at the composition root and pass it by reference to
//     whatever sends events or reads state.
//   - Asynchronous work (reading, writing and deleting the persisted session)
//     happens inside transient states. While one is in flight the machine
//     rejects new events with ErrEventNotAccepted; storage failures never
//     escape Send, they route the machine to unauthenticated and are kept in
//     Snapshot.Err and Session.Error.
//   - A login is reported as authenticated only after the session has been
//     written durably. If the write fails the in memory session is rolled back.
//
// Collaborators:
//   - SecureStore persists four slots (role, token, admin profile JSON, staff
//     profile JSON). Stores that also implement BatchStore commit the slots
//     all-or-nothing; see the storage package for backends.
//   - TokenSetter receives the authoritative bearer token whenever it changes;
//     apiclient.Client implements it.
//   - Navigator is supplied by the host for role based redirects.
//
// Activity sinks:
//   - ActivitySink receives one ActivityEvent per transition. Sinks run
//     best-effort (errors are logged) so they can forward to metrics or queues
//     without blocking the session.
package courier
