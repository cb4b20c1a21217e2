package documents

import (
	"slices"
	"time"
)

// ExcerptLength is the number of characters kept from an uploaded payload.
const ExcerptLength = 1000

// DateLayout is how document timestamps are shown to users and models.
const DateLayout = "2006-01-02 15:04:05"

// Types is the fixed list of document type tags.
var Types = []string{
	"Performance Report",
	"Risk Analysis",
	"Compliance Document",
	"Meeting Notes",
	"Research Report",
	"Financial Statement",
}

// Extensions is the upload allow-list, without the leading dot.
var Extensions = []string{"pdf", "docx", "txt", "xlsx", "png", "jpg", "jpeg"}

// Document is a knowledge base record. It is never mutated after creation.
type Document struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	Type         string    `json:"document_type"`
	ClientName   string    `json:"client_name"`
	AllowedRoles []string  `json:"roles_allowed"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"upload_date"`
	Content      string    `json:"content"`
}

func (d Document) VisibleTo(role string) bool {
	return slices.Contains(d.AllowedRoles, role)
}

// NewDocument carries the fields supplied on upload.
type NewDocument struct {
	Content      string
	FileName     string
	Type         string
	ClientName   string
	AllowedRoles []string
	UploadedBy   string
}

// Query filters a search. Empty Text matches every visible document and an
// empty Client disables the client filter.
type Query struct {
	Text   string
	Role   string
	Client string
}
