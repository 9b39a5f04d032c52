package client

import "encoding/json"

// Payload is a decoded JSON object body. Its shape drifts between backend
// versions, so callers probe it rather than decode into fixed structs.
type Payload map[string]any

type UploadResponse struct {
	FileID  string `json:"file_id"`
	Message string `json:"message"`
}

// SuspiciousFilter narrows /predict/suspicious. Nil fields are sent as JSON null.
type SuspiciousFilter struct {
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Region           *string `json:"region"`
	City             *string `json:"city"`
	MerchantCategory *string `json:"merchant_category"`
	Channel          *string `json:"channel"`
}

type ForecastRequest struct {
	DaysAhead int     `json:"days_ahead"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type CancellationRequest struct {
	AmountKZT       float64 `json:"amount_kzt"`
	Channel         string  `json:"channel"`
	PaymentMethod   string  `json:"payment_method"`
	CustomerSegment string  `json:"customer_segment"`
}

// RepresentativeTransaction is the probe used for the dashboard's
// cancellation probability figure.
func RepresentativeTransaction() CancellationRequest {
	return CancellationRequest{
		AmountKZT:       1000,
		Channel:         "Kaspi QR",
		PaymentMethod:   "card",
		CustomerSegment: "regular",
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

// ChatResponse covers both the /chat and the /ask answer shapes.
type ChatResponse struct {
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	SQLQuery    string `json:"sql_query"`
}

// Text returns the first non-empty of answer, explanation and sql_query.
func (r *ChatResponse) Text() string {
	switch {
	case r == nil:
		return ""
	case r.Answer != "":
		return r.Answer
	case r.Explanation != "":
		return r.Explanation
	default:
		return r.SQLQuery
	}
}

// ChatTurn is one prior message offered to the assistant as context.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}
