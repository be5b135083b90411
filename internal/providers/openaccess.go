package providers

// OpenAccessInfo is the result of an open-access lookup for one DOI.
type OpenAccessInfo struct {
	// IsOpenAccess reports whether a free full-text version exists.
	IsOpenAccess bool

	// OpenAccessURL is the best known location of the free full text.
	// Empty when IsOpenAccess is false.
	OpenAccessURL string
}
