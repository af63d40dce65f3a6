// Package batch provides a bounded concurrent runner for homogeneous work
// items: a weighted semaphore draining a shared input slice, with one
// result per item.
//
// Guarantees:
//   - every item is processed exactly once
//   - per-item failures are collected, never aborting the batch
//   - concurrency 1 processes items in strict input order
//   - a cancelled context stops admission; in-flight items finish and
//     unstarted items report the context error
package batch
