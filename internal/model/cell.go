package model

type Cell struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	LeaderID     *int64  `json:"leader_id"`
	LeaderName   *string `json:"leader_name"`
	Neighborhood *string `json:"neighborhood"`
	Street       *string `json:"street"`
	TotalMembers int64   `json:"total_members"`
}
