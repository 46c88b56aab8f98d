package models

import "time"

// User is a registered account as stored in the 'users' table.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserSchema is the request body for creating or replacing an account.
type UserSchema struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserPublic is the account view returned to clients. It never carries the
// password hash.
type UserPublic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserList struct {
	Users []UserPublic `json:"users"`
}

// FilterPage holds the paging parameters of the listing endpoint.
type FilterPage struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit" binding:"min=0"`
}

const DefaultPageLimit = 100

// NewFilterPage returns the default page: no offset, DefaultPageLimit rows.
func NewFilterPage() FilterPage {
	return FilterPage{Offset: 0, Limit: DefaultPageLimit}
}

// Public converts the stored account to its client view.
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// NewUserList converts stored accounts to their client views, preserving order.
func NewUserList(users []*User) UserList {
	list := UserList{Users: make([]UserPublic, 0, len(users))}
	for _, u := range users {
		list.Users = append(list.Users, u.Public())
	}
	return list
}
