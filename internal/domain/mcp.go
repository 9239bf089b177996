package domain

import "time"

// MCPServiceName identifies this API in MCP contexts.
const MCPServiceName = "employee-service"

const (
	MCPStatusSuccess = "success"
	MCPStatusError   = "error"
)

// MCPContext carries request metadata in both directions.
type MCPContext struct {
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	RequestID *string   `json:"request_id,omitempty"`
	Caller    *string   `json:"caller,omitempty"`
}

// MCPRequest is the agent query envelope.
type MCPRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Context    *MCPContext    `json:"context,omitempty"`
}

// MCPError describes a failed action.
type MCPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MCPResponse is the agent reply envelope.
type MCPResponse struct {
	Status  string     `json:"status"`
	Data    any        `json:"data,omitempty"`
	Error   *MCPError  `json:"error,omitempty"`
	Context MCPContext `json:"context"`
}
