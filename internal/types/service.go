package types

// Category represents service categories
type Category string

const (
	CategoryConsole   Category = "console"
	CategoryExecute   Category = "execute"
	CategoryWorkspace Category = "workspace"
)

// Service represents a service definition
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool represents a service tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context provides execution context for services
type Context struct {
	// WorkDir resolves relative file parameters.
	WorkDir string `json:"work_dir,omitempty"`
	// Interactive is false when prompts cannot be answered.
	Interactive bool `json:"interactive"`
}

// Result represents a service execution result. A result with Success
// false and no error return is informational: the command was aborted
// with a message for the user.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

// Message returns the user facing text of the result, if any.
func (r *Result) Message() string {
	if r == nil {
		return ""
	}
	if r.Error != nil {
		return *r.Error
	}
	if msg, ok := r.Data["message"].(string); ok {
		return msg
	}
	return ""
}
