package domain

// User represents a person record in the users table. Records are never
// physically removed; the Deleted flag splits the set into active and
// soft-deleted partitions.
type User struct {
	ID             int64  `json:"userId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Msisdn         string `json:"msisdn"`
	DocumentType   string `json:"documentType,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	Deleted        bool   `json:"deleted"`
}

func (u *User) IsActive() bool {
	return u != nil && !u.Deleted
}
