package ragclient

// AnswerRequest is the body of POST /rag/answer.
type AnswerRequest struct {
	Question string `json:"question"`
}

// DocumentMetadata is one entry of the answer's metadata array. It pairs with
// the source at the same index.
type DocumentMetadata struct {
	H1             string  `json:"h1"`
	H2             string  `json:"h2"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
	ChunkContent   string  `json:"chunk_content"`
}

// AnswerResponse is the body returned by POST /rag/answer.
type AnswerResponse struct {
	Response string             `json:"response"`
	Sources  []string           `json:"sources"`
	Metadata []DocumentMetadata `json:"metadata"`
}

// NamesPage is returned by both the paginated and the search names endpoints.
type NamesPage struct {
	Names       []string `json:"names"`
	TotalCount  int      `json:"total_count"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
}

// Document is the full content of one medicine leaflet.
type Document struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Source   string `json:"source,omitempty"`
	H1       string `json:"h1,omitempty"`
	H2       string `json:"h2,omitempty"`
	Content  string `json:"content,omitempty"`
}

// HealthStatus is the subset of GET /health the gateway cares about.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
