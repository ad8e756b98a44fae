package model

// Roles a user can hold inside an organization. They are display-only.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is the identity record stored under users/{uid}.
type User struct {
	UID          string `json:"uid" firestore:"uid"`
	FirstName    string `json:"firstName" firestore:"firstName"`
	LastName     string `json:"lastName" firestore:"lastName"`
	Email        string `json:"email" firestore:"email"`
	Organization string `json:"organization" firestore:"organization"`
	Role         string `json:"role" firestore:"role"`
	JoinedOn     string `json:"joinedOn" firestore:"joinedOn"`
	PasswordHash string `json:"-" firestore:"passwordHash"`
}

// DisplayName joins first and last name the way profiles show it.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Member is the copy of a user kept under organizations/{org}/users/{uid}.
type Member struct {
	UID       string `json:"uid" firestore:"uid"`
	FirstName string `json:"firstName" firestore:"firstName"`
	LastName  string `json:"lastName" firestore:"lastName"`
	Email     string `json:"email" firestore:"email"`
	Role      string `json:"role" firestore:"role"`
	JoinedOn  string `json:"joinedOn" firestore:"joinedOn"`
}

// MemberFromUser builds the organization membership record for u.
func MemberFromUser(u User) Member {
	return Member{
		UID:       u.UID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		JoinedOn:  u.JoinedOn,
	}
}

// Organization is the root record organizations/{name}.
type Organization struct {
	Name          string `json:"name" firestore:"name"`
	ImageCount    int64  `json:"imageCount" firestore:"imageCount"`
	SelectedDocID string `json:"selectedDocId" firestore:"selectedDocId"`
}
