package domain

import "time"

// DefaultSort is the ordering key assigned to records submitted without one.
const DefaultSort = 200

// CategoryUncategorized is the grouping label applied when a record has
// no category. Kept in Chinese to match the hosted datasets.
const CategoryUncategorized = "其它"

// Link is one navigation entry in canonical shape: fixed field names,
// scalar types, no trace of the raw column naming. Records live either
// in the published dataset or in the staging queue.
type Link struct {
	// ID is assigned by the backing store on create and is only valid
	// within the table the record was read from.
	ID string `json:"id"`

	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Sort     int    `json:"sort"`
	Icon     string `json:"icon,omitempty"`

	// Detail-page enrichment, present on published records only.
	Description     string `json:"description,omitempty"`
	FullDescription string `json:"fullDescription,omitempty"`

	// TableID names the dataset the record belongs to. Empty means the
	// default dataset.
	TableID string `json:"tableId,omitempty"`

	// CreatedAt is supplied by the backing store for staged records.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Empty reports whether the record carries neither a name nor a URL.
// Such rows are dropped during ingestion and never reach the UI.
func (l Link) Empty() bool {
	return l.Name == "" && l.URL == ""
}

// TableDescriptor is one metadata-table entry mapping a human dataset
// name to its storage coordinates.
type TableDescriptor struct {
	TableName   string `json:"table_name"`
	TableID     string `json:"table_id"`
	AppToken    string `json:"-"` // credential-scope id, never exposed over HTTP
	Sort        int    `json:"sort"`
	Description string `json:"description,omitempty"`
}
