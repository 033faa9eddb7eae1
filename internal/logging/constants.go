package logging

// Standardized field names for structured logging.
const (
	FieldFile          = "file_path"
	FieldOperation     = "operation"
	FieldStatus        = "status"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldReason        = "reason"
	FieldOwner         = "owner"
	FieldPropertyID    = "property_id"
	FieldHeaderHash    = "header_hash"
	FieldMappingSource = "mapping_source"
	FieldConfidence    = "confidence"
	FieldProfile       = "profile"
	FieldEncoding      = "encoding"
	FieldDriver        = "storage_driver"
	FieldMatched       = "matched"
	FieldDuplicates    = "duplicates"
	FieldUnmatched     = "unmatched"
	FieldDropped       = "dropped"
	FieldEvalDate      = "eval_date"
)
