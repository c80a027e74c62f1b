// Package tasks runs multi-step player operations with real-time progress reporting.
//
// # Status Dump
//
// [StatusEngine.Dump] collects everything the player exposes in one pass:
//
//  1. Reachability probe
//  2. Now playing
//  3. Queue
//  4. Volume
//
// An unreachable player stops the dump after the probe; the result then only carries
// the probe outcome. Individual read failures are collected in [DumpResult.Errors]
// instead of aborting the dump.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking, so a nil or full channel never stalls an operation.
package tasks
