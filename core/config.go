package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string `validate:"required"`
		Build    string
		WorkDir  string

		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		ReportRecipients []string

		// DataRoot is the default corpus directory walked by the import command.
		DataRoot         string
		RenderTimeout    time.Duration
		KnownInstructors []string `validate:"required,min=1"`

		Database DatabaseConfig
	}

	DatabaseConfig struct {
		Engine        string `validate:"required"`
		Name          string `validate:"required"`
		Host          string `validate:"required"`
		Port          string `validate:"required"`
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the app configuration: viper defaults, an optional
// config/.env.<env> file and ENV-prefixed environment variables, in
// increasing order of precedence.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Ukuaji")
	v.SetDefault("build", "dev")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("reportRecipients", []string{})
	v.SetDefault("dataRoot", filepath.Join(Getwd(), "data"))
	v.SetDefault("renderTimeout", 30*time.Second)
	v.SetDefault("knownInstructors", []string{"Intensives", "Jami", "Saurav", "Srijan"})
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "ukuaji")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         testMode || v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		WorkDir:          Getwd(),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{Address: v.GetString("defaultFromEmail")},
		ReportRecipients: v.GetStringSlice("reportRecipients"),
		DataRoot:         v.GetString("dataRoot"),
		RenderTimeout:    v.GetDuration("renderTimeout"),
		KnownInstructors: v.GetStringSlice("knownInstructors"),
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
	}
	if err := Validate.Struct(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// Getwd tries to find the project root.
// go-test changes the working directory to the test package being run during tests;
// walking up to the directory holding go.mod keeps config paths stable either way.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
