package model

// Session is the authenticated identity of the client. Token and User
// are set together and cleared together.
type Session struct {
	Token string
	User  *Profile
}

// Authenticated reports whether the session carries both a token and a
// user. A stale profile without a token is not a session.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// UserID returns the session user's id, or 0 when unauthenticated.
func (s Session) UserID() int {
	if !s.Authenticated() {
		return 0
	}
	return s.User.ID
}
