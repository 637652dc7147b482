package user

// User is the authenticated principal of a request. The id is the JWT subject.
type User struct {
	ID          string
	Name        string
	Email       string
	UserGroupID string
	Groups      []string
	Admin       bool
}

// IsAdmin reports whether the user belongs to the configured admin group.
func (u *User) IsAdmin() bool {
	return u != nil && u.Admin
}

// InGroup reports whether the user is a member of groupID.
func (u *User) InGroup(groupID string) bool {
	if u == nil {
		return false
	}
	if u.UserGroupID == groupID {
		return true
	}
	for _, g := range u.Groups {
		if g == groupID {
			return true
		}
	}
	return false
}
