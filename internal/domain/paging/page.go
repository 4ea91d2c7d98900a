package paging

// Meta is the backend pagination block
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

func (m Meta) HasMore() bool { return m.CurrentPage < m.LastPage }

type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}
