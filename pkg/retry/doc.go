// Package retry provides bounded retry with pluggable backoff strategies.
//
// The value fetch path uses it to retry rate-limited (429) downloads with
// exponential backoff while abandoning every other remote failure
// immediately. The RetryIf predicate decides retryability; backoff
// strategies compute the delay between attempts; Wait is context-aware so
// a cancelled run stops sleeping.
package retry
