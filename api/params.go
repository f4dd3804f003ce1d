package api

import "time"

// Params are part of cache keys, so every field is omitempty: an unset filter
// and an absent filter produce the same key.

type PageParams struct {
	Page   int    `json:"page,omitempty" url:"page,omitempty"`
	Limit  int    `json:"limit,omitempty" url:"limit,omitempty"`
	Sort   string `json:"sort,omitempty" url:"sort,omitempty"`
	Search string `json:"search,omitempty" url:"search,omitempty"`
}

type AuditsParams struct {
	PageParams
	Action     string     `json:"action,omitempty" url:"action,omitempty"`
	ActorID    string     `json:"actorId,omitempty" url:"actorId,omitempty"`
	ResourceID string     `json:"resourceId,omitempty" url:"resourceId,omitempty"`
	From       *time.Time `json:"from,omitempty" url:"from,omitempty"`
	To         *time.Time `json:"to,omitempty" url:"to,omitempty"`
}

type ClientsParams struct {
	PageParams
	Status    string `json:"status,omitempty" url:"status,omitempty"`
	ProgramID string `json:"programId,omitempty" url:"programId,omitempty"`
	State     string `json:"state,omitempty" url:"state,omitempty"`
}

type PatientsParams struct {
	PageParams
	ProviderID string `json:"providerId,omitempty" url:"providerId,omitempty"`
	Status     string `json:"status,omitempty" url:"status,omitempty"`
}

type PartnersParams struct {
	PageParams
	ProgramID string `json:"programId,omitempty" url:"programId,omitempty"`
	Type      string `json:"type,omitempty" url:"type,omitempty"`
}

type PostalCodeParams struct {
	ZipCode string `json:"zipCode,omitempty" url:"zipCode,omitempty"`
}
