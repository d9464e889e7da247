package models

// Book is one catalog entry. Description holds the original markdown;
// DescriptionHTML is rendered once at catalog load.
type Book struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Subtitle        string `json:"subtitle,omitempty" yaml:"subtitle"`
	Language        string `json:"language,omitempty" yaml:"language"`
	Tradition       string `json:"tradition,omitempty" yaml:"tradition"`
	Description     string `json:"description,omitempty" yaml:"description"`
	DescriptionHTML string `json:"description_html,omitempty" yaml:"-"`
	Available       bool   `json:"available" yaml:"available"`
}

// BookQuery filters the catalog listing. Q matches title, subtitle, and
// description case-insensitively.
type BookQuery struct {
	Q         string `json:"q,omitempty"`
	Tradition string `json:"tradition,omitempty"`
	Language  string `json:"language,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Normalize clamps paging values to sane bounds.
func (q *BookQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
