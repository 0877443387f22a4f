package extractor

// Filter transforms or narrows a list of candidate keywords.
type Filter interface {
	Apply(keywords []string) []string
	Name() string
}

// Chain applies filters in order.
type Chain []Filter

// Apply runs every filter of the chain over keywords.
func (c Chain) Apply(keywords []string) []string {
	for _, f := range c {
		keywords = f.Apply(keywords)
	}
	return keywords
}

// Names lists the filters of the chain, for logging.
func (c Chain) Names() []string {
	names := make([]string, 0, len(c))
	for _, f := range c {
		names = append(names, f.Name())
	}
	return names
}
