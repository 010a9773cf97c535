package logging

// Shared attribute keys. Stages log with these so events stay greppable
// across the whole pipeline.
const (
	FieldComponent    = "component"
	FieldEventType    = "event_type"
	FieldStage        = "stage"
	FieldItemID       = "item_id"
	FieldRequestID    = "request_id"
	FieldErrorHint    = "error_hint"
	FieldDecisionType = "decision_type"
)
