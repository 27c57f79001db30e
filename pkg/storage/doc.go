// Package storage manages the local destination tree of the backup.
//
// Each namespace key maps to one file under the destination root, with
// path separators in the key becoming nested directories. File existence
// is the resumability mechanism: a present file is skipped without a
// network call, and files are never overwritten or deleted. Writes are
// whole-file and atomic (temp file plus rename).
package storage
