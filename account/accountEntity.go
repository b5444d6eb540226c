package account

import (
	"fmt"
	"strings"

	"github.com/fundwit/go-commons/types"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleUser    Role = "user"
	RoleBlocked Role = "blocked"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser || r == RoleBlocked
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", invalidRoleError(s)
	}
	return r, nil
}

func invalidRoleError(s string) error {
	return fmt.Errorf("invalid role %q, must be one of admin, user, blocked", s)
}

// User holds the credential of an identity.
type User struct {
	ID         types.ID        `json:"id" gorm:"primary_key"`
	Email      string          `json:"email" gorm:"type:varchar(255);unique_index:uni_user_email"`
	Secret     string          `json:"-"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (u *User) TableName() string {
	return "users"
}

type Profile struct {
	ID        types.ID        `json:"id" gorm:"primary_key"`
	Email     string          `json:"email" gorm:"type:varchar(255)"`
	FullName  string          `json:"fullName"`
	Role      Role            `json:"role" gorm:"type:varchar(16);not null"`
	AvatarURL string          `json:"avatarUrl"`
	CreatedAt types.Timestamp `json:"createdAt" sql:"type:DATETIME(6)"`
	UpdatedAt types.Timestamp `json:"updatedAt" sql:"type:DATETIME(6)"`
}

func (p *Profile) TableName() string {
	return "profiles"
}

type SignUpRequest struct {
	Email    string         `json:"email" binding:"required,email,lte=255"`
	Password string         `json:"password" binding:"required,gte=6,lte=72"`
	Metadata SignUpMetadata `json:"metadata"`
}

type SignUpMetadata struct {
	FullName string `json:"fullName" binding:"lte=255"`
}

type ProfileUpdating struct {
	FullName string `json:"fullName" binding:"required,lte=255"`
}

type RoleUpdating struct {
	Role string `json:"role" binding:"required"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret" binding:"required"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=72"`
}
