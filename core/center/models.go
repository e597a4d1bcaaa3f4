package center

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taqyimhq/taqyim/core"
)

// Center is a customer-service location; the aggregation unit for rankings.
type Center struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region,omitempty"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewCenter contains information needed to create a new Center.
type NewCenter struct {
	Name   string `json:"name" validate:"required"`
	Region string `json:"region"`
}

func (nc *NewCenter) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Region = core.CleanString(nc.Region)
	return validate.Struct(nc)
}

// UpdateCenter defines what information may be provided to modify an existing Center.
type UpdateCenter struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	IsActive *bool  `json:"is_active"`
}

func (uc *UpdateCenter) Validate(orig Center, validate *validator.Validate) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	region := core.CleanString(uc.Region)
	if region != "" {
		uc.Region = region
	} else {
		uc.Region = orig.Region
	}
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
