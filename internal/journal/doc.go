// Package journal records extraction attempts in SQLite so past requests
// can be reviewed with "mseedcut history".
//
// The journal is opt-in ([journal] enabled = true). It is written after the
// segment file has been renamed into place, or after a request failed, and
// is never consulted when resolving a new request.
//
// The table layout is stamped in the SQLite user_version header field.
// Opening a file stamped by a different layout fails with ErrJournalFormat.
package journal
