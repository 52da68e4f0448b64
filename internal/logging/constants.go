package logging

// Standardized field names for structured logging so reconciliation runs can be
// filtered by file, line or short name.
const (
	FieldFileName      = "file_name"
	FieldLocation      = "location"
	FieldFileID        = "eft_file_id"
	FieldLine          = "line"
	FieldTransactionID = "eft_transaction_id"
	FieldShortName     = "short_name"
	FieldShortNameID   = "short_name_id"
	FieldAccountID     = "account_id"
	FieldInvoiceID     = "invoice_id"
	FieldCreditID      = "eft_credit_id"
	FieldAmount        = "amount"
	FieldMessageType   = "message_type"
	FieldMessageID     = "message_id"
	FieldStatus        = "status"
	FieldOperation     = "operation"
	FieldCount         = "count"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
)
