package model

import "time"

type Tenant struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	SiteRef      string    `json:"site_ref,omitempty"`
	BusinessName string    `json:"business_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Timezone     string    `json:"timezone"`
	Currency     string    `json:"currency"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Owner is the account that owns a tenant, as known by the account directory.
type Owner struct {
	ID    string
	Email string
}
