package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldUserID     = "user_id"
	FieldEmail      = "email"
	FieldEntryID    = "entry_id"
	FieldRuleID     = "rule_id"
	FieldCategory   = "category"
	FieldAmount     = "amount_cents"
	FieldCurrency   = "currency"
	FieldNextRun    = "next_run"
	FieldOccurredOn = "occurred_on"
	FieldFormat     = "format"
	FieldReference  = "reference"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentStorage      = "storage"
	ComponentMaterializer = "materializer"
	ComponentReports      = "reports"
	ComponentExport       = "export"
	ComponentAuth         = "auth"
	ComponentBilling      = "billing"
	ComponentEmail        = "email"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentRates        = "rates"
)
