package transport

// SearchRequest carries at most one lookup criterion. Dispatch priority is
// userId, then msisdn, then documentNumber.
type SearchRequest struct {
	UserID         *int64 `json:"userId"`
	Msisdn         string `json:"msisdn"`
	DocumentNumber string `json:"documentNumber"`
}

// UserRequest is the create/update payload. Validation mirrors the persisted
// schema: name and a well-formed email are mandatory, the rest is optional.
type UserRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Msisdn         string `json:"msisdn"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
}
