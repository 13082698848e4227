package dto

// DashboardCounts summarizes the caller's workload per role.
type DashboardCounts struct {
	Submissions      int `json:"submissions"`
	Mine             int `json:"mine"`
	AwaitingApproval int `json:"awaiting_approval"`
	AwaitingEndorse  int `json:"awaiting_endorsement"`
}

// DashboardResponse is the per-user landing view. Submissions is the
// role-scoped history: everything past draft for admins and coordinators,
// the approved-and-beyond slice for deputy deans, the union when the caller
// holds several roles. The queue sections carry only the items currently
// awaiting that caller's action; sections the caller has no role for come
// back empty, never missing.
type DashboardResponse struct {
	Submissions      []SubmissionResponse `json:"submissions"`
	Mine             []SubmissionResponse `json:"mine"`
	CoordinatorQueue []SubmissionResponse `json:"coordinator_queue"`
	DeputyDeanQueue  []SubmissionResponse `json:"deputy_dean_queue"`
	Counts           DashboardCounts      `json:"counts"`
	CacheHit         bool                 `json:"cache_hit,omitempty"`
}
