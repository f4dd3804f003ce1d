package api

import "time"

type HumanName struct {
	Prefix string   `json:"prefix,omitempty"`
	Given  []string `json:"given,omitempty"`
	Family string   `json:"family,omitempty"`
	Suffix string   `json:"suffix,omitempty"`
}

type Address struct {
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

type ClientRepresentative struct {
	ID           string    `json:"id"`
	Name         HumanName `json:"name"`
	Relationship string    `json:"relationship,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
}

type Client struct {
	ID             string                `json:"id"`
	Name           HumanName             `json:"name"`
	BirthDate      string                `json:"birthDate,omitempty"`
	Gender         string                `json:"gender,omitempty"`
	Email          string                `json:"email,omitempty"`
	Phone          string                `json:"phone,omitempty"`
	Status         string                `json:"status,omitempty"`
	Representative *ClientRepresentative `json:"representative,omitempty"`
	Address        *Address              `json:"address,omitempty"`
	ProgramIDs     []string              `json:"programIds,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// FullClient is the single-client view with its clinical context.
type FullClient struct {
	Client
	Conditions []Condition `json:"conditions,omitempty"`
	Vitals     []Vital     `json:"vitals,omitempty"`
	Programs   []Program   `json:"programs,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// Provider is a clinician or staff user; "me" is the signed-in provider.
type Provider struct {
	ID        string    `json:"id"`
	Name      HumanName `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	NPI       string    `json:"npi,omitempty"`
	Role      string    `json:"role,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	Active    bool      `json:"active"`
}

type Patient struct {
	ID          string      `json:"id"`
	MRN         string      `json:"mrn,omitempty"`
	Name        HumanName   `json:"name"`
	BirthDate   string      `json:"birthDate,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	Address     *Address    `json:"address,omitempty"`
	ProviderID  string      `json:"providerId,omitempty"`
	ClientID    string      `json:"clientId,omitempty"`
	Conditions  []Condition `json:"conditions,omitempty"`
	Status      string      `json:"status,omitempty"`
	LastVisitAt *time.Time  `json:"lastVisitAt,omitempty"`
}

type Audit struct {
	ID         string            `json:"id,omitempty"`
	Action     string            `json:"action"`
	Resource   string            `json:"resource,omitempty"`
	ResourceID string            `json:"resourceId,omitempty"`
	ActorID    string            `json:"actorId,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  *time.Time        `json:"createdAt,omitempty"`
}

type PostalCode struct {
	ZipCode string `json:"zipCode"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	County  string `json:"county,omitempty"`
}

type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Program struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	ConditionIDs []string `json:"conditionIds,omitempty"`
	PartnerIDs   []string `json:"partnerIds,omitempty"`
	States       []string `json:"states,omitempty"`
}

type Condition struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	System  string `json:"system,omitempty"`
	Display string `json:"display,omitempty"`
}

type Partner struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Email      string   `json:"email,omitempty"`
	ProgramIDs []string `json:"programIds,omitempty"`
}

// Vital is a measurement tracked under a program, e.g. blood pressure.
type Vital struct {
	ID      string   `json:"id"`
	Code    string   `json:"code"`
	Display string   `json:"display,omitempty"`
	Unit    string   `json:"unit,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}
