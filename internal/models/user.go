package models

// User is the identity of an authenticated caller. It is owned by the external
// identity store and read-only here.
type User struct {
	ID    int64  `json:"id" db:"id"`
	Email string `json:"email" db:"email"` // Presence key
	Name  string `json:"name" db:"name"`
}

// UserResponse is what we send to clients
type UserResponse struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		UserName: u.Name,
	}
}
