package dispatch

// SearchKnowledgebasesArgs validates search_knowledgebases input via struct
// tags understood by go-playground/validator.
type SearchKnowledgebasesArgs struct {
	Query             string `json:"query" validate:"required,min=1"`
	KnowledgebaseName string `json:"knowledgebase_name,omitempty" validate:"omitempty"`
	DocumentType      string `json:"document_type,omitempty" validate:"omitempty,oneof=pdf docx pptx xlsx html markdown text audio"`
	MaxResults        int    `json:"max_results,omitempty" validate:"omitempty,min=1,max=200"`
}

// GetKnowledgebaseStatsArgs validates get_knowledgebase_stats input.
type GetKnowledgebaseStatsArgs struct {
	Name string `json:"name" validate:"required,min=1"`
}

// ListKnowledgebasesArgs takes no fields; {} is always valid.
type ListKnowledgebasesArgs struct{}

// OpenKnowledgebaseManagerArgs takes no fields; {} is always valid.
type OpenKnowledgebaseManagerArgs struct{}

const (
	ToolListKnowledgebases       = "list_knowledgebases"
	ToolSearchKnowledgebases     = "search_knowledgebases"
	ToolGetKnowledgebaseStats    = "get_knowledgebase_stats"
	ToolOpenKnowledgebaseManager = "open_knowledgebase_manager"
)
