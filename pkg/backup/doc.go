// Package backup orchestrates the export pipeline.
//
// One producer (the key lister) walks the cursor-paginated listing and
// pushes key names into a bounded queue; a fixed pool of workers fetches
// the values through a shared rate limiter and writes them to the
// destination tree. The lister persists its cursor after every successful
// page, making an interrupted run resumable; destination file existence
// makes already-fetched keys free to skip.
//
// Failure containment: a failed value fetch abandons only that key, a
// failed listing stops only the producer (queued work drains), and only
// configuration errors abort a run before it starts.
package backup
