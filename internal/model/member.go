package model

type Member struct {
	ID            int64   `json:"id"`
	FullName      string  `json:"full_name"`
	BirthDate     *string `json:"birth_date"` // ISO date, YYYY-MM-DD
	Phone         *string `json:"phone"`
	CellID        *int64  `json:"cell_id"`
	CellName      *string `json:"cell_name"`
	DepartmentIDs []int64 `json:"department_ids"`
	Departments   *string `json:"department_names"`
}

// MemberPage is the response shape of the paginated member listing.
type MemberPage struct {
	Members     []*Member `json:"members"`
	TotalItems  int64     `json:"total_items"`
	TotalPages  int64     `json:"total_pages"`
	CurrentPage int64     `json:"current_page"`
}

// MemberFilter combines with logical AND; zero values impose no predicate.
type MemberFilter struct {
	Name         string
	DepartmentID int64
	CellID       int64
	Page         int64
	Limit        int64
}
