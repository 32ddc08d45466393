package database

import (
	"fmt"
	"regexp"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 标识符白名单，拼 DDL 前校验（CREATE DATABASE 不能参数化）
var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type ProvisionOpts struct {
	MaintenanceDSN string // 连 postgres 维护库
	Database       string
	User           string
	Password       string
}

// Provision 幂等建库建角色：存在则跳过，每步结果写入 report
func Provision(o ProvisionOpts, report func(format string, args ...any)) error {
	if !identRe.MatchString(o.Database) {
		return fmt.Errorf("provision: bad database name %q", o.Database)
	}
	if !identRe.MatchString(o.User) {
		return fmt.Errorf("provision: bad role name %q", o.User)
	}

	db, err := gorm.Open(postgres.Open(o.MaintenanceDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("provision: connect maintenance db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var n int64
	if err := db.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", o.Database).Scan(&n).Error; err != nil {
		return fmt.Errorf("provision: check database: %w", err)
	}
	if n > 0 {
		report("database %q already exists", o.Database)
	} else {
		if err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", o.Database)).Error; err != nil {
			return fmt.Errorf("provision: create database: %w", err)
		}
		report("database %q created", o.Database)
	}

	if err := db.Raw("SELECT count(*) FROM pg_roles WHERE rolname = ?", o.User).Scan(&n).Error; err != nil {
		return fmt.Errorf("provision: check role: %w", err)
	}
	if n > 0 {
		report("role %q already exists", o.User)
	} else {
		// DDL 不接受绑定参数，密码交给服务端转义
		var quoted string
		if err := db.Raw("SELECT quote_literal(?::text)", o.Password).Scan(&quoted).Error; err != nil {
			return fmt.Errorf("provision: quote password: %w", err)
		}
		if err := db.Exec(fmt.Sprintf("CREATE USER %s WITH PASSWORD %s", o.User, quoted)).Error; err != nil {
			return fmt.Errorf("provision: create role: %w", err)
		}
		report("role %q created", o.User)
	}

	if err := db.Exec(fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", o.Database, o.User)).Error; err != nil {
		return fmt.Errorf("provision: grant: %w", err)
	}
	report("privileges granted on %q to %q", o.Database, o.User)
	return nil
}
