package model

import "time"

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:60;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:120" json:"email"`
	// Password holds the bcrypt hash, never the plain text.
	Password  string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
