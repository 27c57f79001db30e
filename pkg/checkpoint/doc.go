// Package checkpoint persists the listing cursor across process restarts.
//
// The checkpoint is a single plain text file holding the last cursor
// issued by the key listing endpoint. It is written atomically (temp file
// plus rename) after every successful page and once more on interruption.
// An absent or unreadable checkpoint degrades to a full listing from the
// beginning; it never aborts the run.
package checkpoint
