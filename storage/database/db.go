package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/myfeedback/core"
	appfs "github.com/trezcool/myfeedback/fs"
)

// Supported database engines.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite3"
)

const migrationsDir = "migrations"

// MigrationsPrefix is the table prefix the bundled migrations create tables with.
const MigrationsPrefix = "mdl_"

var (
	ErrUnsupportedEngine = errors.New("unsupported database engine")
	ErrMigrationsPrefix  = errors.New("migrations only support the " + MigrationsPrefix + " table prefix")
)

func dsn(dbName string, admin bool, conf *core.Config) (string, error) {
	usr, pwd := conf.Database.User, conf.Database.Password
	if admin && conf.Database.AdminUser != "" {
		usr, pwd = conf.Database.AdminUser, conf.Database.AdminPassword
	}

	switch conf.Database.Engine {
	case Postgres:
		sslMode := "require"
		if conf.Database.DisableTLS {
			sslMode = "disable"
		}
		q := make(url.Values)
		q.Set("sslmode", sslMode)
		q.Set("timezone", "utc")

		u := url.URL{
			Scheme:   Postgres,
			User:     url.UserPassword(usr, pwd),
			Host:     conf.Database.Address(),
			Path:     dbName,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case MySQL:
		mc := mysql.NewConfig()
		mc.User = usr
		mc.Passwd = pwd
		mc.Net = "tcp"
		mc.Addr = conf.Database.Address()
		mc.DBName = dbName
		mc.Loc = time.UTC
		mc.TLSConfig = "true"
		if conf.Database.DisableTLS {
			mc.TLSConfig = "false"
		}
		return mc.FormatDSN(), nil

	case SQLite:
		return dbName, nil

	default:
		return "", errors.Wrap(ErrUnsupportedEngine, conf.Database.Engine)
	}
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	src, err := dsn(dbName, admin, conf)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(conf.Database.Engine, src)
	if err != nil {
		return nil, err
	}
	if conf.Database.Engine == SQLite {
		// each connection to an in-memory database is a new database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open opens the platform database and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found []bool
	if err := db.Select(&found, query, name); err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func createUserQuery(name, password string) string {
	return fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s", pq.QuoteIdentifier(name), pq.QuoteLiteral(password))
}

func createDBQuery(name string) string {
	return "CREATE DATABASE " + pq.QuoteIdentifier(name)
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	found, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		if _, err = db.Exec(createUserQuery(conf.Database.User, conf.Database.Password)); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec(createDBQuery(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the app user and database of a local postgres server.
// Other engines are left alone.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != Postgres {
		return nil
	}

	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return err
	}

	// create DB as app user
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()
	return createDB(appDB, conf)
}

func setupGoose(engine string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(engine); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	return nil
}

// Setup opens the platform database. When conf.Database.Migrate is set, it first creates
// the local postgres user and database, then applies the pending migrations.
// Otherwise the database is only read.
func Setup(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if conf.Database.Migrate {
		if err := CreateIfNotExist(conf); err != nil {
			return nil, err
		}
	}

	db, err := Open(conf)
	if err != nil {
		return nil, err
	}

	if conf.Database.Migrate {
		if err = Migrate(ctx, db, conf.Database.Prefix); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// Migrate applies the pending migrations.
func Migrate(ctx context.Context, db *sqlx.DB, prefix string) error {
	return RunMigrations(ctx, db, prefix, "up")
}

// RunMigrations runs a goose command (up, down, status, version, redo, reset..) against db.
// The migrations create MigrationsPrefix tables, so any other prefix is refused.
func RunMigrations(ctx context.Context, db *sqlx.DB, prefix, command string, args ...string) error {
	if prefix != MigrationsPrefix {
		return errors.Wrap(ErrMigrationsPrefix, prefix)
	}
	if err := setupGoose(db.DriverName()); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db.DB, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations: %s", command)
	}
	return nil
}
