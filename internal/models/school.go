package models

// School is the tenant every record in this service belongs to.
type School struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DirectorName string `db:"director_name" json:"director_name"`
	LogoURL      string `db:"logo_url" json:"logo_url,omitempty"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state"`
}
