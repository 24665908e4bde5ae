package dto

import "time"

type UserProfileResponse struct {
	ID               uint      `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Nickname         string    `json:"nickname"`
	Gender           string    `json:"gender"`
	Birthday         string    `json:"birthday"`
	Introduce        string    `json:"introduce"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CompleteProfileRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=60"`
	Nickname  string `json:"nickname" binding:"required,min=2,max=60"`
	Gender    string `json:"gender" binding:"required,oneof=MALE FEMALE OTHER"`
	Birthday  string `json:"birthday" binding:"required,datetime=2006-01-02"`
	Introduce string `json:"introduce" binding:"required"`
}

type UpdateIntroduceRequest struct {
	Introduce string `json:"introduce" binding:"required"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}
