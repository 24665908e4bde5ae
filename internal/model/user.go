package model

import (
	"time"

	"gorm.io/gorm"
)

// Gender is a profile placeholder until the user completes registration.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

type User struct {
	gorm.Model
	Email            string    `gorm:"column:email;size:120;unique;not null"`
	Name             string    `gorm:"column:name;size:60;not null"`
	Nickname         string    `gorm:"column:nickname;size:60;unique;not null"`
	Password         string    `gorm:"column:password;not null"`
	Gender           Gender    `gorm:"column:gender;size:16;not null"`
	Birthday         time.Time `gorm:"column:birthday;type:date;not null"`
	Introduce        string    `gorm:"column:introduce;type:text"`
	ProfileCompleted bool      `gorm:"column:profile_completed;not null"`
	Role             string    `gorm:"column:role;not null;default:ROLE_USER"`
}

// CompleteProfile fills in the profile fields and marks the profile complete.
// Entity methods are the only mutation surface for these columns.
func (u *User) CompleteProfile(name, nickname string, gender Gender, birthday time.Time, introduce string) {
	u.Name = name
	u.Nickname = nickname
	u.Gender = gender
	u.Birthday = birthday
	u.Introduce = introduce
	u.ProfileCompleted = true
}

// UpdatePassword replaces the stored password hash.
func (u *User) UpdatePassword(hashedPassword string) {
	u.Password = hashedPassword
}

// UpdateIntroduce updates the bio and marks the profile complete.
func (u *User) UpdateIntroduce(introduce string) {
	u.Introduce = introduce
	u.ProfileCompleted = true
}
