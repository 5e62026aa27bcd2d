package constants

// RunStatus is the outcome recorded for one spreadsheet in the enrichment journal.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusWritten    RunStatus = "WRITTEN"     // json written, no dispatch configured
	RunStatusPosted     RunStatus = "POSTED"      // json written and accepted by the endpoint
	RunStatusPostFailed RunStatus = "POST_FAILED" // json written, dispatch failed
	RunStatusFailed     RunStatus = "FAILED"      // workbook could not be processed
)
