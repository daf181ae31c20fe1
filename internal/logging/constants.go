package logging

// Field names shared by all components so log output can be filtered consistently.
const (
	FieldFile       = "file_path"
	FieldFolder     = "folder"
	FieldSource     = "source"
	FieldDest       = "destination"
	FieldInvoiceID  = "invoice_id"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldWorkers    = "workers"
	FieldTool       = "tool"
	FieldRunID      = "run_id"
	FieldComponent  = "component"
	FieldCandidates = "candidates"
)
