package cases

import "time"

type CreateCaseRequest struct {
	Description  string    `json:"description" validate:"required,max=2000"`
	Type         string    `json:"type" validate:"required,oneof=theft assault fraud vandalism cctv-review other"`
	Priority     string    `json:"priority" validate:"required,oneof=low medium high"`
	Location     string    `json:"location" validate:"required,max=300"`
	IncidentAt   time.Time `json:"incident_at" validate:"required"`
	OperatorName string    `json:"operator_name" validate:"omitempty,max=200"`
}

type UpdateCaseRequest struct {
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type         *string    `json:"type,omitempty" validate:"omitempty,oneof=theft assault fraud vandalism cctv-review other"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Location     *string    `json:"location,omitempty" validate:"omitempty,max=300"`
	IncidentAt   *time.Time `json:"incident_at,omitempty"`
	OperatorName *string    `json:"operator_name,omitempty" validate:"omitempty,max=200"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=new inprogress closed"`
}

type ListCasesRequest struct {
	Search   *string `json:"search,omitempty"`
	Status   *Status `json:"status,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Type     *Type   `json:"type,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=500"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
