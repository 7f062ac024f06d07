package models

// Registration is the stored record, keyed by lowercased email. The
// dynamodbav names match the DynamoDB table attributes; the postgres and
// redis drivers map them to their own column/field names.
type Registration struct {
	Email        string `json:"email" dynamodbav:"Email"`
	Name         string `json:"name" dynamodbav:"Name"`
	RegisterDate string `json:"registerDate" dynamodbav:"RegisterDate"` // YYYY-MM-DD
	ReferenceID  string `json:"reference" dynamodbav:"ReferenceId"`     // 10 chars, [A-Z0-9]
	LogTime      string `json:"logTime" dynamodbav:"LogTime"`           // RFC3339, time of last write
	ExpiryTime   int64  `json:"expiryTime" dynamodbav:"ExpiryTime"`     // unix seconds, end of RegisterDate
}

// View is the client-facing projection of a registration, returned inside
// the response envelope's data field.
type View struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	RegisterDate string `json:"registerDate,omitempty"`
	Reference    string `json:"reference,omitempty"`
}
