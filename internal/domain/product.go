package domain

import "time"

type Product struct {
	ID          string    `db:"id" json:"ID"`
	Name        string    `db:"name" json:"Name"`
	Description *string   `db:"description" json:"Description,omitempty"`
	Price       float64   `db:"price" json:"Price"`
	ImageKey    *string   `db:"image_key" json:"-"`
	ImageURL    *string   `db:"-" json:"ImageURL,omitempty"`
	Active      bool      `db:"active" json:"Active"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

// ListMeta is the pagination block returned with every product list.
type ListMeta struct {
	Page       int    `json:"Page"`
	PageSize   int    `json:"PageSize"`
	TotalCount int    `json:"TotalCount"`
	TotalPages int    `json:"TotalPages"`
	ItemRange  [2]int `json:"ItemRange"`
}

type ProductList struct {
	Items []Product `json:"Items"`
	Meta  ListMeta  `json:"Meta"`
}

// NewListMeta derives page counts and the 1-based item range of a page.
func NewListMeta(page, pageSize, total int) ListMeta {
	meta := ListMeta{Page: page, PageSize: pageSize, TotalCount: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	first := (page-1)*pageSize + 1
	last := page * pageSize
	if last > total {
		last = total
	}
	if first > last {
		first, last = 0, 0
	}
	meta.ItemRange = [2]int{first, last}
	return meta
}
