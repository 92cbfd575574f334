package model

import "time"

type Department struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	TotalMembers int64     `json:"total_members"`
}

// DepartmentMember is a roster row for the membership-management view:
// every member, flagged with whether it belongs to the department in question.
type DepartmentMember struct {
	ID       int64   `json:"id"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	Belongs  bool    `json:"belongs"`
}
