package models

// DocumentStatus is owned by the backend; the client only displays it.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "PENDING"
	DocumentProcessing DocumentStatus = "PROCESSING"
	DocumentCompleted  DocumentStatus = "COMPLETED"
	DocumentFailed     DocumentStatus = "FAILED"
)

type Document struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	FileName      string         `json:"fileName"`
	FileType      string         `json:"fileType"`
	FileSize      int64          `json:"fileSize"`
	Status        DocumentStatus `json:"status"`
	Summary       string         `json:"summary,omitempty"`
	ExtractedText string         `json:"extractedText,omitempty"`
	CreatedAt     Timestamp      `json:"createdAt"`
	UpdatedAt     Timestamp      `json:"updatedAt"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// DocumentPage is one page of the document list.
type DocumentPage struct {
	Data       []Document `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ListQuery selects a page of documents. Page is 1-based.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

type SearchResult struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	FileName      string    `json:"fileName"`
	Similarity    float64   `json:"similarity"`
	ExtractedText string    `json:"extractedText"`
	CreatedAt     Timestamp `json:"createdAt"`
}
