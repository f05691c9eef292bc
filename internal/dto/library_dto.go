package dto

type LoadNamesRequest struct {
	Page  int    `query:"page" validate:"omitempty,min=1"`
	Query string `query:"query" validate:"max=200"`
}

// Empty query resets the listing.
type SearchNamesRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type SelectDocumentRequest struct {
	Name string `json:"name" validate:"required,max=300"`
}

type LibraryStateResponse struct {
	Names       []string `json:"names"`
	Query       string   `json:"query"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalCount  int      `json:"total_count"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
	Loading     bool     `json:"loading"`
	Error       string   `json:"error,omitempty"`
}

type DocumentStateResponse struct {
	SelectedName string        `json:"selected_name,omitempty"`
	Document     *DocumentItem `json:"document,omitempty"`
	Loading      bool          `json:"loading"`
	Error        string        `json:"error,omitempty"`
	ErrorName    string        `json:"error_name,omitempty"`
}

type DocumentItem struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Source   string `json:"source,omitempty"`
	H1       string `json:"h1,omitempty"`
	H2       string `json:"h2,omitempty"`
	Content  string `json:"content"`
}
