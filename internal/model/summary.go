package model

type Summary struct {
	TotalMembers     int64 `json:"total_members"`
	TotalDepartments int64 `json:"total_departments"`
	TotalCells       int64 `json:"total_cells"`
	TotalUsers       int64 `json:"total_users"`
}
