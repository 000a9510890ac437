package types

// Envelope wraps every successful payload as {"data": ...}.
type Envelope struct {
	Data any `json:"data"`
}

// Problem is the body of a failed request.
type Problem struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ProblemEnvelope wraps a Problem as {"error": ...}.
type ProblemEnvelope struct {
	Error Problem `json:"error"`
}
