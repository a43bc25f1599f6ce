package Models

type NotificationRequest struct {
	Tokens []string          `json:"tokens"` // Multiple device tokens
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// AnalysisEvent is pushed to dashboards when a cephalogram changes status.
type AnalysisEvent struct {
	Cephalogram string `json:"cephalogram"`
	Patient     string `json:"patient"`
	DoctorID    uint   `json:"-"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}
