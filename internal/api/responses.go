package api

// ErrorResponse is the body of every failed request. Kind is a stable
// machine-readable error class.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"insufficient balance"`
	Kind    string `json:"kind,omitempty" example:"insufficient_balance"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Store  string `json:"store,omitempty" example:"postgres"`
}

// DataResponse wraps read results.
type DataResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data"`
}
