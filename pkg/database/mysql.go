package database

import (
	"strings"
	"time"

	"claim-portal/config"
	"claim-portal/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var db *gorm.DB

// gormLogger forwards gorm's printf output to the zap sugar logger on one line.
type gormLogger struct{}

func (*gormLogger) Printf(format string, v ...interface{}) {
	log.Sugar.Infof(strings.ReplaceAll(format, "\n", " "), v...)
}

// Open builds a gorm handle over dialector with the pool and naming settings
// of conf. Tests pass a sqlmock backed dialector.
func Open(conf config.MysqlConfig, dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   conf.Prefix,
			SingularTable: true,
		},
		Logger: logger.New(&gormLogger{}, logger.Config{
			SlowThreshold:             time.Second * time.Duration(conf.SlowThreshold),
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if conf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	}
	if conf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	}
	if conf.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Second * time.Duration(conf.ConnMaxLifetime))
	}
	return gdb, nil
}

// NewMysql opens the shared connection from the mysql config section and
// panics when it cannot.
func NewMysql() {
	conf := config.GetConfig().Mysql

	var err error
	db, err = Open(conf, mysql.New(mysql.Config{
		DSN:                      conf.Url,
		DefaultStringSize:        255,
		DisableDatetimePrecision: true,
		DontSupportRenameIndex:   true,
		DontSupportRenameColumn:  true,
	}))
	if err != nil {
		panic(err)
	}
}

func Mysql() *gorm.DB {
	return db
}

func DisconnectMysql() {
	if db == nil {
		return
	}
	if sqlDB, _ := db.DB(); sqlDB != nil {
		_ = sqlDB.Close()
	}
}
