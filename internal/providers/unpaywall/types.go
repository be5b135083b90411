package unpaywall

// Response is the Unpaywall /v2/{doi} response, reduced to the fields the
// enricher needs.
type Response struct {
	DOI            string      `json:"doi"`
	IsOA           bool        `json:"is_oa"`
	OAStatus       string      `json:"oa_status"`
	BestOALocation *OALocation `json:"best_oa_location"`
}

// OALocation describes one open-access copy of a work.
type OALocation struct {
	URL       string `json:"url"`
	URLForPDF string `json:"url_for_pdf"`
	Version   string `json:"version"`
}
