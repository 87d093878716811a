package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Atlas/config"
	"Atlas/logger"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 按配置建立 GORM 连接并迁移给定的模型
func Open(cfg *config.Config, models ...interface{}) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// 关系由 cartographer 维护，不依赖外键
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database with GORM: %w", cfg.DBDriver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite 只允许一个写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to auto migrate models: %w", err)
		}
	}

	logger.Info("database connected", logger.String("driver", cfg.DBDriver))
	return gdb, nil
}

// OpenMemory opens a private in-memory sqlite database, used by tests and
// dry runs.
func OpenMemory(models ...interface{}) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(models...); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Close 关闭底层连接
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		return sqlite.Open(cfg.SQLitePath + "?_foreign_keys=off&_busy_timeout=5000"), nil
	case "mysql":
		return mysql.Open(MySQLDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// MySQLDSN builds the driver DSN from the configuration.
func MySQLDSN(cfg *config.Config) string {
	mc := mysqldrv.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = cfg.DBHost + ":" + cfg.DBPort
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
