// Package ratelimit bounds the aggregate request rate against the
// Cloudflare API.
//
// Two mechanisms cooperate:
//
//   - a shared Limiter (SlidingWindow by default) admits at most
//     MaxRequests requests within any rolling TimeWindow across all
//     workers and the key lister combined;
//   - PaceInterval gives each worker a fixed minimum delay to sleep after
//     every completed fetch, so throughput stays self-limiting even when
//     the queue is full.
//
// Only the aggregate bound is guaranteed; admission order between
// waiting callers is not.
package ratelimit
