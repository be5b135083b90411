package openalex

// SearchResponse is the top-level OpenAlex /works search response.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta contains pagination metadata for a search response.
type Meta struct {
	Count   int `json:"count"`
	DBTime  int `json:"db_response_time_ms"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work represents a single OpenAlex work.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Type                  string           `json:"type"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Authorships           []Authorship     `json:"authorships"`
	OpenAccess            *OpenAccess      `json:"open_access"`
	PrimaryLocation       *Location        `json:"primary_location"`
}

// Authorship links a work to one author with their institutions.
type Authorship struct {
	AuthorPosition string        `json:"author_position"`
	Author         AuthorInfo    `json:"author"`
	Institutions   []Institution `json:"institutions"`
}

// AuthorInfo identifies an author.
type AuthorInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Orcid       string `json:"orcid"`
}

// Institution identifies an author's institution.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// OpenAccess describes a work's open-access status.
type OpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAURL    string `json:"oa_url"`
	OAStatus string `json:"oa_status"`
}

// Location describes where a work is hosted.
type Location struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
	Version        string `json:"version"`
}
