// Package logtail reads the tail of leaddeck's log file for the logs view.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded no matter how large the file grows. A missing file reads as
// empty: the log only appears after the first write.
//
// The log is zap's JSON encoding, one object per line:
//
//	{"level":"warn","ts":1760870400.5,"msg":"query fetch failed","key":"\"leads\"","kind":"network"}
//
// Parse turns such a line into an Entry whose String form is what the TUI
// shows:
//
//	10:40:00 WARN  query fetch failed key="leads" kind=network
//
// Lines that are not JSON objects are passed through unchanged.
package logtail
