package crossref

// SearchResponse is the top-level Crossref /works response envelope.
type SearchResponse struct {
	Status  string  `json:"status"`
	Message Message `json:"message"`
}

// Message contains the search results and pagination metadata.
type Message struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work represents a single Crossref work.
type Work struct {
	DOI             string       `json:"DOI"`
	Title           []string     `json:"title"`
	Abstract        string       `json:"abstract"`
	Author          []WorkAuthor `json:"author"`
	PublishedPrint  *PartialDate `json:"published-print"`
	PublishedOnline *PartialDate `json:"published-online"`
	Created         *PartialDate `json:"created"`
	ReferencedBy    int          `json:"is-referenced-by-count"`
	URL             string       `json:"URL"`
}

// WorkAuthor is one author entry with split name parts.
type WorkAuthor struct {
	Given       string        `json:"given"`
	Family      string        `json:"family"`
	Affiliation []Affiliation `json:"affiliation"`
}

// Affiliation is an author's institution.
type Affiliation struct {
	Name string `json:"name"`
}

// PartialDate is Crossref's date-parts representation: an array of
// [year, month, day] triples, any suffix of which may be omitted.
type PartialDate struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 if absent.
func (d *PartialDate) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}
