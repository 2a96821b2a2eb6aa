package request_models

type ListUsersQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=user admin super_admin"`
	Tier     string `form:"tier" binding:"omitempty,oneof=free launch growth scale white_label custom"`
	Active   *bool  `form:"active"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=80"`
	Role     *string `json:"role" binding:"omitempty,oneof=user admin super_admin"`
	Tier     *string `json:"tier" binding:"omitempty,oneof=free launch growth scale white_label custom"`
	IsActive *bool   `json:"is_active"`
}

type AuditLogQuery struct {
	Category  string `form:"category"`
	EventType string `form:"event_type"`
	ActorID   string `form:"actor_id"`
	SubjectID string `form:"subject_id"`
	Start     int64  `form:"start"`
	End       int64  `form:"end"`
	Limit     int64  `form:"limit,default=100" binding:"min=1,max=500"`
	Offset    int64  `form:"offset" binding:"min=0"`
}

type DashboardQuery struct {
	Start    int64  `form:"start"`
	End      int64  `form:"end"`
	Interval string `form:"interval" binding:"omitempty,oneof=day week month"`
	Timezone string `form:"tz"`
	Currency string `form:"currency"`
}

type PageQuery struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}
