// Package storage groups the run storage backends used by the sorter. Each
// subpackage implements the run.Storage contract: create a uniquely named
// object for writing, open it for reading once closed, and delete it.
//
//   - local keeps every run in its own temporary file.
//   - pebble keeps runs as block-keyed ranges inside a Pebble database, so
//     thousands of short runs share a handful of files.
//   - memory keeps runs in process memory and is meant for tests and inputs
//     that are known to be small.
package storage
