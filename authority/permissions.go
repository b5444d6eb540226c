package authority

import (
	"context"
	"errors"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/idgen"
	"stocktrack/infra/metrics"
	"stocktrack/persistence"
	"stocktrack/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	permissionIdWorker = idgen.NewWorker()

	IsAdminFunc = account.IsAdmin

	GetTablePermissionFunc     = GetTablePermission
	GetActionPermissionFunc    = GetActionPermission
	CheckTablePermissionFunc   = CheckTablePermission
	CheckActionPermissionFunc  = CheckActionPermission
	QueryTablePermissionsFunc  = QueryTablePermissions
	QueryActionPermissionsFunc = QueryActionPermissions
	SetTablePermissionFunc     = SetTablePermission
	SetActionPermissionFunc    = SetActionPermission
	EffectivePermissionsFunc   = EffectivePermissions
)

// GetTablePermission returns the stored level, LevelNone when no record exists.
func GetTablePermission(ctx context.Context, uid types.ID, table string) (Level, error) {
	rec := TablePermission{}
	err := persistence.ActiveDataSourceManager.GormDB(ctx).
		Where("user_id = ? AND table_name = ?", uid, table).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LevelNone, nil
	}
	if err != nil {
		return LevelNone, err
	}
	if !rec.Permission.Valid() {
		return LevelNone, nil
	}
	return rec.Permission, nil
}

// GetActionPermission returns the stored flag. Missing records grant the action.
func GetActionPermission(ctx context.Context, uid types.ID, action string) (bool, error) {
	rec := ActionPermission{}
	err := persistence.ActiveDataSourceManager.GormDB(ctx).
		Where("user_id = ? AND permission_name = ?", uid, action).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Enabled, nil
}

// CheckTablePermission admits admins unconditionally, everyone else needs a stored level
// satisfying required.
func CheckTablePermission(s *session.Session, table string, required Level) bool {
	allowed := checkTablePermission(s, table, required)
	metrics.PermissionChecks.WithLabelValues("table", metrics.Outcome(allowed)).Inc()
	return allowed
}

func checkTablePermission(s *session.Session, table string, required Level) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return true
	}
	level, err := GetTablePermissionFunc(s.Ctx(), s.Identity.ID, table)
	if err != nil {
		logrus.Warnf("read %s permission of user %d on %s: %v", required, s.Identity.ID, table, err)
		return false
	}
	return level.Satisfies(required)
}

// CheckActionPermission admits admins unconditionally. A failed read denies.
func CheckActionPermission(s *session.Session, action string) bool {
	allowed := checkActionPermission(s, action)
	metrics.PermissionChecks.WithLabelValues("action", metrics.Outcome(allowed)).Inc()
	return allowed
}

func checkActionPermission(s *session.Session, action string) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return true
	}
	enabled, err := GetActionPermissionFunc(s.Ctx(), s.Identity.ID, action)
	if err != nil {
		logrus.Warnf("read action permission %s of user %d: %v", action, s.Identity.ID, err)
		return false
	}
	return enabled
}

func RequireTablePermission(s *session.Session, table string, required Level) error {
	if !CheckTablePermissionFunc(s, table, required) {
		return bizerror.ErrForbidden
	}
	return nil
}

func RequireActionPermission(s *session.Session, action string) error {
	if !CheckActionPermissionFunc(s, action) {
		return bizerror.ErrForbidden
	}
	return nil
}

func QueryTablePermissions(uid types.ID, s *session.Session) ([]TablePermission, error) {
	if uid != s.Identity.ID && !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	records := []TablePermission{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).
		Where("user_id = ?", uid).Order("table_name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func QueryActionPermissions(uid types.ID, s *session.Session) ([]ActionPermission, error) {
	if uid != s.Identity.ID && !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	records := []ActionPermission{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).
		Where("user_id = ?", uid).Order("permission_name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SetTablePermission updates the (user, table) record in place or inserts it.
func SetTablePermission(uid types.ID, table string, level Level, s *session.Session) (*TablePermission, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	if !isKnownTable(table) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("unknown table " + table)}
	}
	if !level.Valid() {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("invalid permission " + string(level))}
	}

	rec := TablePermission{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", uid).First(&account.Profile{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		err := tx.Where("user_id = ? AND table_name = ?", uid, table).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec = TablePermission{ID: idgen.NextID(permissionIdWorker), UserID: uid, Table: table,
				Permission: level, CreatedAt: types.CurrentTimestamp()}
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&TablePermission{}).Where("id = ?", rec.ID).UpdateColumn("permission", level).Error; err != nil {
			return err
		}
		rec.Permission = level
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func SetActionPermission(id types.ID, enabled bool, s *session.Session) (*ActionPermission, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	rec := ActionPermission{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&ActionPermission{}).Where("id = ?", id).UpdateColumn("enabled", enabled).Error; err != nil {
			return err
		}
		rec.Enabled = enabled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateDefaultActionPermissions enables every known action for uid, keeping the records
// which already exist.
func CreateDefaultActionPermissions(uid types.ID, tx *gorm.DB) error {
	existed := []ActionPermission{}
	if err := tx.Where("user_id = ?", uid).Find(&existed).Error; err != nil {
		return err
	}
	names := map[string]bool{}
	for _, r := range existed {
		names[r.PermissionName] = true
	}
	now := types.CurrentTimestamp()
	for _, action := range KnownActions {
		if names[action] {
			continue
		}
		rec := ActionPermission{ID: idgen.NextID(permissionIdWorker), UserID: uid, PermissionName: action,
			Enabled: true, CreatedAt: now}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
	}
	return nil
}

// EffectivePermissions resolves the full matrix of the session identity. Read failures resolve
// to denial.
func EffectivePermissions(s *session.Session) (*PermissionMatrix, error) {
	if s == nil || s.Token == "" {
		return nil, bizerror.ErrUnauthenticated
	}
	m := &PermissionMatrix{Tables: map[string]Level{}, Actions: map[string]bool{}}

	role, err := account.ResolveRoleFunc(s.Ctx(), s.Identity.ID)
	if err != nil {
		logrus.Warnf("resolve role of user %d: %v", s.Identity.ID, err)
	}
	m.Role = string(role)

	if role == account.RoleAdmin {
		for _, t := range KnownTables {
			m.Tables[t] = LevelWrite
		}
		for _, a := range KnownActions {
			m.Actions[a] = true
		}
		return m, nil
	}

	for _, t := range KnownTables {
		m.Tables[t] = LevelNone
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Ctx())
	tables := []TablePermission{}
	if err := db.Where("user_id = ?", s.Identity.ID).Find(&tables).Error; err != nil {
		logrus.Warnf("read table permissions of user %d: %v", s.Identity.ID, err)
	} else {
		for _, r := range tables {
			if isKnownTable(r.Table) && r.Permission.Valid() {
				m.Tables[r.Table] = r.Permission
			}
		}
	}

	actions := []ActionPermission{}
	if err := db.Where("user_id = ?", s.Identity.ID).Find(&actions).Error; err != nil {
		logrus.Warnf("read action permissions of user %d: %v", s.Identity.ID, err)
		for _, a := range KnownActions {
			m.Actions[a] = false
		}
		return m, nil
	}
	for _, a := range KnownActions {
		m.Actions[a] = true
	}
	for _, r := range actions {
		m.Actions[r.PermissionName] = r.Enabled
	}
	return m, nil
}
