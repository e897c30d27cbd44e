package auth

import "time"

// User is an operator account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthSession is the explicit session value handed to handlers instead of
// ambient global state. Lifecycle: anonymous -> authenticated(token, user,
// remember) -> anonymous.
type AuthSession struct {
	Token    string
	UserID   int64
	Email    string
	Role     string
	Remember bool
}

// Anonymous returns the zero, unauthenticated session value.
func Anonymous() AuthSession {
	return AuthSession{}
}

// Authenticated reports whether the session carries a signed-in user.
func (a AuthSession) Authenticated() bool {
	return a.UserID != 0 && a.Token != ""
}
