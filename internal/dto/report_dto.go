package dto

type CreateReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	ImageURL    *string  `json:"image_url"`
	Tags        []string `json:"tags"`
}

// ListReportsQuery is the filter set for the public report feed.
type ListReportsQuery struct {
	Search   string
	Location string
	Tags     []string
	SortBy   string // "latest" (default) or "popular"
	Limit    int
	Offset   int
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

type ShareRequest struct {
	Platform *string `json:"platform"`
}

type ReportViolationRequest struct {
	Reason string `json:"reason"`
}

type CreatedResponse struct {
	ID uint `json:"id"`
}

type ToggleLikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}
