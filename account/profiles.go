package account

import (
	"context"
	"errors"
	"stocktrack/bizerror"
	"stocktrack/persistence"
	"stocktrack/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	// RoleChangedHooks run after a role has been persisted.
	RoleChangedHooks []func(uid types.ID, role Role)

	ResolveRoleFunc     = ResolveRole
	QueryProfilesFunc   = QueryProfiles
	DetailProfileFunc   = DetailProfile
	UpdateProfileFunc   = UpdateProfile
	SetRoleFunc         = SetRole
	UpdateAvatarURLFunc = UpdateAvatarURL
)

func ResolveRole(ctx context.Context, uid types.ID) (Role, error) {
	p := Profile{}
	if err := persistence.ActiveDataSourceManager.GormDB(ctx).Select("role").Where("id = ?", uid).First(&p).Error; err != nil {
		return "", err
	}
	return p.Role, nil
}

// IsAdmin reports false whenever the role can not be resolved.
func IsAdmin(ctx context.Context, uid types.ID) bool {
	role, err := ResolveRoleFunc(ctx, uid)
	if err != nil {
		logrus.Warnf("resolve role of user %d: %v", uid, err)
		return false
	}
	return role == RoleAdmin
}

func QueryProfiles(s *session.Session) ([]Profile, error) {
	if !IsAdmin(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	profiles := []Profile{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func DetailProfile(uid types.ID, s *session.Session) (*Profile, error) {
	if uid != s.Identity.ID && !IsAdmin(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	p := Profile{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Where("id = ?", uid).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func UpdateProfile(uid types.ID, u *ProfileUpdating, s *session.Session) (*Profile, error) {
	if uid != s.Identity.ID && !IsAdmin(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	return updateProfileColumns(s.Ctx(), uid, map[string]interface{}{"full_name": u.FullName})
}

func SetRole(uid types.ID, role Role, s *session.Session) (*Profile, error) {
	if !IsAdmin(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	if !role.Valid() {
		return nil, &bizerror.ErrBadParam{Cause: invalidRoleError(string(role))}
	}

	p, err := updateProfileColumns(s.Ctx(), uid, map[string]interface{}{"role": role})
	if err != nil {
		return nil, err
	}
	for _, hook := range RoleChangedHooks {
		hook(uid, role)
	}
	return p, nil
}

func UpdateAvatarURL(uid types.ID, url string, ctx context.Context) error {
	_, err := updateProfileColumns(ctx, uid, map[string]interface{}{"avatar_url": url})
	return err
}

func updateProfileColumns(ctx context.Context, uid types.ID, changes map[string]interface{}) (*Profile, error) {
	p := Profile{}
	err := persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", uid).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		changes["updated_at"] = types.CurrentTimestamp()
		if err := tx.Model(&Profile{}).Where("id = ?", uid).UpdateColumns(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", uid).First(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
