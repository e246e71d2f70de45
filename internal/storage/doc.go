package storage

// Package storage persists the feeding schedule across power cycles and
// keeps a best-effort audit trail of dispenses.
//
// It currently supports:
//   - The schedule triple (day/hour/minute, -1 when unset)
//   - Feed audit appends (never read back by the core)
