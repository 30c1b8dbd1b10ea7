package component

// Tag labels an entity for lookups and logs.
type Tag struct {
	Name   string   `yaml:"name"`
	Labels []string `yaml:"labels"`
}

// Has reports whether label is one of the tag's labels.
func (t *Tag) Has(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}
