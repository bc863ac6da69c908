package account

import "time"

// Status of an account. Only ACTIVE accounts pass credential verification.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// Account is the persisted entity. Empty strings mean the field was never
// supplied; nil timestamps mean the event has not happened yet. ID is zero
// until the store assigns one.
type Account struct {
	ID          int
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Status      Status
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
	LastLoginAt *time.Time
}

// FullName prefers "first last", falls back to whichever name is set and
// finally to the username.
func (a Account) FullName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	case a.LastName != "":
		return a.LastName
	}
	return a.Username
}

func (a Account) IsActive() bool {
	return a.Status == StatusActive
}

// Response is the projection of an account that is safe to return over
// HTTP. Password and updatedAt are deliberately left out.
type Response struct {
	ID          int        `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone"`
	Status      *string    `json:"status"`
	CreatedAt   *time.Time `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

func NewResponse(acc Account) Response {
	var status *string
	if acc.Status != "" {
		name := string(acc.Status)
		status = &name
	}

	return Response{
		ID:          acc.ID,
		Username:    acc.Username,
		Email:       acc.Email,
		FirstName:   acc.FirstName,
		LastName:    acc.LastName,
		Phone:       acc.Phone,
		Status:      status,
		CreatedAt:   acc.CreatedAt,
		LastLoginAt: acc.LastLoginAt,
	}
}
