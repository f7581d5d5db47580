package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Engine        string // postgres | mysql | sqlite3
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Prefix        string // platform table prefix
		Migrate       bool
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	PlatformConfig struct {
		WWWRoot            string
		Timezone           string
		FeedbackReportPath string
	}

	BlockConfig struct {
		MaxItems       int
		FeedbackWindow time.Duration
		MarkingPast    time.Duration
		MarkingAhead   time.Duration
		CourseGrace    time.Duration
		MarkerRoles    []string
		ModuleNames    []string
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string
		WorkDir  string

		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Platform PlatformConfig
		Block    BlockConfig
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

// Location returns the platform timezone, UTC if it cannot be loaded.
func (p PlatformConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(p.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

// NewConfig reads the configuration from the environment and an optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "My Feedback")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "moodle")
	v.SetDefault("database.user", "moodle")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.prefix", "mdl_")
	v.SetDefault("database.migrate", false)

	v.SetDefault("platform.wwwroot", "http://localhost")
	v.SetDefault("platform.timezone", "Europe/London")
	v.SetDefault("platform.feedbackReportPath", "/report/myfeedback/index.php")

	v.SetDefault("block.maxItems", 5)
	v.SetDefault("block.feedbackWindow", 2160*time.Hour) // 90 days
	v.SetDefault("block.markingPast", 60*24*time.Hour)
	v.SetDefault("block.markingAhead", 30*24*time.Hour)
	v.SetDefault("block.courseGrace", 30*24*time.Hour)
	v.SetDefault("block.markerRoles", []string{"editingteacher", "teacher"})
	v.SetDefault("block.moduleNames", []string{"assign", "quiz", "turnitintooltwo"})

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		AppName:  v.GetString("appName"),
		Build:    v.GetString("build"),
		WorkDir:  wd,

		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),

		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Prefix:        v.GetString("database.prefix"),
			Migrate:       v.GetBool("database.migrate"),
		},
		Platform: PlatformConfig{
			WWWRoot:            strings.TrimRight(v.GetString("platform.wwwroot"), "/"),
			Timezone:           v.GetString("platform.timezone"),
			FeedbackReportPath: v.GetString("platform.feedbackReportPath"),
		},
		Block: BlockConfig{
			MaxItems:       v.GetInt("block.maxItems"),
			FeedbackWindow: v.GetDuration("block.feedbackWindow"),
			MarkingPast:    v.GetDuration("block.markingPast"),
			MarkingAhead:   v.GetDuration("block.markingAhead"),
			CourseGrace:    v.GetDuration("block.courseGrace"),
			MarkerRoles:    v.GetStringSlice("block.markerRoles"),
			ModuleNames:    v.GetStringSlice("block.moduleNames"),
		},
	}
}
