package domain

// User is the identity exposed by the authentication collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
