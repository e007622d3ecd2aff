package dto

const (
	ActionDeletePost = "delete_post"
	ActionDismiss    = "dismiss"
	ActionWarnUser   = "warn_user" // accepted, no further effect
)

type ReviewViolationRequest struct {
	Action string `json:"action"`
}

type AdminStats struct {
	TotalReports      int64 `json:"total_reports"`
	ActiveReports     int64 `json:"active_reports"`
	DeletedReports    int64 `json:"deleted_reports"`
	TotalUsers        int64 `json:"total_users"`
	PendingViolations int64 `json:"pending_violations"`
}

type ToggleAdminResponse struct {
	IsAdmin bool `json:"is_admin"`
}
