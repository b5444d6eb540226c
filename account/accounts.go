package account

import (
	"context"
	"errors"
	"stocktrack/bizerror"
	"stocktrack/idgen"
	"stocktrack/persistence"
	"stocktrack/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	userIdWorker = idgen.NewWorker()

	ErrEmailExisted    = &bizerror.ErrConflict{Code: "account.email_existed", Message: "email already registered"}
	ErrInvalidPassword = &bizerror.ErrBadParam{Cause: errors.New("original password is not correct")}

	// UserCreatedHooks run inside the transaction creating a new identity.
	UserCreatedHooks []func(uid types.ID, tx *gorm.DB) error

	SignUpFunc                = SignUp
	AuthenticateFunc          = Authenticate
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
)

func SignUp(r *SignUpRequest, ctx context.Context) (*Profile, error) {
	email := normalizeEmail(r.Email)
	secret, err := HashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	var profile *Profile
	err = persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		existed, err := findUserByEmail(email, tx)
		if err != nil {
			return err
		}
		if existed != nil {
			return ErrEmailExisted
		}
		profile, err = createIdentity(email, secret, r.Metadata.FullName, RoleUser, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Authenticate checks the credential and returns the identity with its current role.
// A failed role lookup does not prevent signing in, the role is reported empty instead.
func Authenticate(email, password string, ctx context.Context) (*session.Identity, Role, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	user, err := findUserByEmail(normalizeEmail(email), db)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !CheckPassword(user.Secret, password) {
		return nil, "", bizerror.ErrUnauthenticated
	}

	identity := session.Identity{ID: user.ID, Email: user.Email}
	profile := Profile{}
	if err := db.Where("id = ?", user.ID).First(&profile).Error; err != nil {
		logrus.Warnf("load profile of user %d on sign in: %v", user.ID, err)
		return &identity, "", nil
	}
	identity.FullName = profile.FullName
	return &identity, profile.Role, nil
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, s *session.Session) error {
	secret, err := HashPassword(u.NewSecret)
	if err != nil {
		return err
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where("id = ?", s.Identity.ID).First(&user).Error; err != nil {
			return err
		}
		if !CheckPassword(user.Secret, u.OriginalSecret) {
			return ErrInvalidPassword
		}
		return tx.Model(&User{}).Where("id = ?", user.ID).UpdateColumn("secret", secret).Error
	})
}

// BootstrapAdmin makes sure an admin identity exists for email, creating it when needed.
func BootstrapAdmin(email, password string, ctx context.Context) (*Profile, error) {
	email = normalizeEmail(email)
	var profile *Profile
	err := persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUserByEmail(email, tx)
		if err != nil {
			return err
		}
		if user == nil {
			secret, err := HashPassword(password)
			if err != nil {
				return err
			}
			profile, err = createIdentity(email, secret, "", RoleAdmin, tx)
			return err
		}

		if password != "" {
			secret, err := HashPassword(password)
			if err != nil {
				return err
			}
			if err := tx.Model(&User{}).Where("id = ?", user.ID).UpdateColumn("secret", secret).Error; err != nil {
				return err
			}
		}
		p := Profile{}
		err = tx.Where("id = ?", user.ID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = Profile{ID: user.ID, Email: user.Email, Role: RoleAdmin, CreatedAt: types.CurrentTimestamp()}
			p.UpdatedAt = p.CreatedAt
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			profile = &p
			return nil
		}
		if err != nil {
			return err
		}
		p.Role = RoleAdmin
		p.UpdatedAt = types.CurrentTimestamp()
		if err := tx.Model(&Profile{}).Where("id = ?", p.ID).
			UpdateColumns(map[string]interface{}{"role": p.Role, "updated_at": p.UpdatedAt}).Error; err != nil {
			return err
		}
		profile = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func createIdentity(email, secret, fullName string, role Role, tx *gorm.DB) (*Profile, error) {
	now := types.CurrentTimestamp()
	user := User{ID: idgen.NextID(userIdWorker), Email: email, Secret: secret, CreateTime: now}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	profile := Profile{ID: user.ID, Email: email, FullName: fullName, Role: role, CreatedAt: now, UpdatedAt: now}
	if err := tx.Create(&profile).Error; err != nil {
		return nil, err
	}
	for _, hook := range UserCreatedHooks {
		if err := hook(user.ID, tx); err != nil {
			return nil, err
		}
	}
	return &profile, nil
}

func findUserByEmail(email string, db *gorm.DB) (*User, error) {
	user := User{}
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
