package models

// Identity is the user record returned by the backend on login
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	RoleID    string `json:"role_id"`
}

// DisplayName returns the best human-readable name available
func (i Identity) DisplayName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.Username != "":
		return i.Username
	default:
		return i.Email
	}
}

// Credentials is the body of POST /auth/login
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string
	User  Identity
}
