package models

// ProviderResponse is the SMS provider's wire-level reply. The field
// names mirror the provider's JSON contract and must not be renamed.
type ProviderResponse struct {
	Value        string `json:"Value"`
	RetStatus    int    `json:"RetStatus"`
	StrRetStatus string `json:"StrRetStatus"`
}

// RedactedRequest is the outbound provider request as included in
// diagnostic payloads. The credential field always holds the redaction
// marker, never the configured value.
type RedactedRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BodyID   int    `json:"bodyId,omitempty"`
	To       string `json:"to"`
	From     string `json:"from,omitempty"`
	Text     string `json:"text"`
}

// SMSDebug carries everything an operator needs to diagnose a failed
// delivery. It is attached to error responses, so it is typed rather
// than a free-form map to keep the redaction guarantee structural.
type SMSDebug struct {
	Phone        string            `json:"phone"`
	Request      RedactedRequest   `json:"request"`
	Response     *ProviderResponse `json:"response,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Transport    string            `json:"transport_error,omitempty"`
}

type SMSResult struct {
	Success  bool              `json:"success"`
	Response *ProviderResponse `json:"response,omitempty"`
	Debug    SMSDebug          `json:"debug"`
}
