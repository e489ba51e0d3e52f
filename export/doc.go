// Package export writes run results in machine- and human-readable forms:
// the full JSON report, a JSONL or CSV trace, a CSV violation log and
// markdown summary tables.
package export
