package config

import (
	"fmt"

	"github.com/andrewpaige1/problempad/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Database *gorm.DB

// Connect opens the problem store for env and migrates the schema.
func Connect(env Environment) (*gorm.DB, error) {
	dialector, err := dialectorFor(env.DBDriver, env.DBURL)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Warn
	if !env.IsDevelopment {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&models.Problem{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate database: %w", err)
	}

	Database = db
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite requires DB_URL to name a database file")
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires DB_URL")
		}
		return postgres.Open(dsn), nil
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("mysql requires DB_URL")
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}
