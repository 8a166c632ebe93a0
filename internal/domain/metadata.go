package domain

import "strings"

// FieldError is one entry of a platform userErrors list
type FieldError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// Path joins the error field path for display
func (e FieldError) Path() string {
	return strings.Join(e.Field, ".")
}

// MetafieldEdit is a change to an existing (ID set) or new metafield
type MetafieldEdit struct {
	ID        string `json:"id,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// Field outcome states for a metafield update
const (
	FieldOK         = "ok"
	FieldFailed     = "failed"
	FieldNotApplied = "not_applied"
)

// FieldOutcome reports what happened to one edit of an update
type FieldOutcome struct {
	Index    int      `json:"index"`
	Key      string   `json:"key"`
	Status   string   `json:"status"`
	Messages []string `json:"messages,omitempty"`
}

// MetafieldUpdateResult is the aggregate result of a product metafield update
type MetafieldUpdateResult struct {
	Success    bool           `json:"success"`
	Fields     []FieldOutcome `json:"fields"`
	Errors     []FieldError   `json:"errors,omitempty"`
	Metafields []Metafield    `json:"metafields,omitempty"`
}

// MetaobjectField is a key/value pair of a metaobject
type MetaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metaobject is a structured platform entity built from product data
type Metaobject struct {
	ID     string            `json:"id,omitempty"`
	Handle string            `json:"handle"`
	Type   string            `json:"type"`
	Fields []MetaobjectField `json:"fields"`
}

// Lookbook metaobject definition
const (
	LookbookType         = "cartesian_lookbook"
	LookbookProductField = "product"
)

// LookbookFields is the fixed value field set sent with every lookbook create
var LookbookFields = []string{"title", "description", "style"}

// LookbookHandle derives the metaobject handle for a product
func LookbookHandle(productID string) string {
	return "lookbook-" + NumericID(productID)
}

// Item outcome states for batch operations
const (
	ItemCreated = "created"
	ItemFailed  = "failed"
)

// ItemOutcome is the per-item result of a batch mutation
type ItemOutcome struct {
	ItemID     string       `json:"item_id"`
	Status     string       `json:"status"`
	ResourceID string       `json:"resource_id,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// BatchSummary counts outcomes of a batch
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts the outcomes by status
func Summarize(outcomes []ItemOutcome) BatchSummary {
	s := BatchSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Status == ItemCreated {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// BatchResult is the reply to a batch mutation, one outcome per input item in order
type BatchResult struct {
	Outcomes []ItemOutcome `json:"outcomes"`
	Summary  BatchSummary  `json:"summary"`
}
