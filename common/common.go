package common

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"emperror.dev/errors"
	_ "github.com/lib/pq"
	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"
	"github.com/wardenbot/warden/common/config"
)

const (
	VERSION = "1.4.0"
)

var (
	PQ        *sql.DB
	RedisPool *radix.Pool

	Testing = os.Getenv("WARDEN_TESTING") != ""

	logger = GetFixedPrefixLogger("common")
)

// CoreInit establishes the postgres and redis connections, it does not
// run schema migrations, that's done separately through RunMigrations
// so that tools can connect without touching the schema.
func CoreInit(loadConfig bool) error {
	logrus.AddHook(ContextHook{})

	if loadConfig {
		err := LoadConfig()
		if err != nil {
			return errors.WrapIf(err, "failed loading config")
		}
	}

	err := connectRedis(ConfRedis.GetString())
	if err != nil {
		return errors.WrapIf(err, "failed connecting to redis")
	}

	config.AddSource(&config.RedisConfigStore{Pool: RedisPool})
	config.Load()

	err = connectDB(ConfPQHost.GetString(), ConfPQUsername.GetString(), ConfPQPassword.GetString(), ConfPQDB.GetString(), ConfMaxSQLConns.GetInt())
	if err != nil {
		return errors.WrapIf(err, "failed connecting to postgres")
	}

	return nil
}

func connectRedis(addr string) (err error) {
	RedisPool, err = radix.NewPool("tcp", addr, 10, radix.PoolOnEmptyWait())
	if err != nil {
		logger.WithError(err).Fatal("Failed initializing redis pool")
	}

	return
}

func connectDB(host, user, pass, dbName string, maxConns int) error {
	if host == "" {
		host = "localhost"
	}

	passwordPart := ""
	if pass != "" {
		passwordPart = " password='" + pass + "'"
	}

	db, err := sql.Open("postgres", fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable%s", host, user, dbName, passwordPart))
	PQ = db
	if err == nil {
		PQ.SetMaxOpenConns(maxConns)
		PQ.SetMaxIdleConns(maxConns)
		PQ.SetConnMaxLifetime(time.Minute * 10)
	}

	return err
}

// GetPluginLogger returns a logger prefixed with the plugin's system name
func GetPluginLogger(plugin Plugin) *logrus.Entry {
	return GetFixedPrefixLogger(plugin.PluginInfo().SysName)
}

// GetFixedPrefixLogger returns a logger with a fixed prefix field
func GetFixedPrefixLogger(prefix string) *logrus.Entry {
	return logrus.WithField("p", prefix)
}
