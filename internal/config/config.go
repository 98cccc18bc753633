// Package config handles input from etc/main.toml and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	// EnvPrefix prefixes every environment override, e.g. AUTHENTICATOR_AUTH_MODE.
	EnvPrefix = "AUTHENTICATOR"

	// EnvConfigJSON holds a complete JSON document merged over the file config.
	EnvConfigJSON = "AUTHENTICATOR_CONFIG_JSON"

	redacted = "********"

	minTokenSecretLen = 32
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigName("main")
	v.SetConfigType("toml")
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "Authenticator")
	v.SetDefault("webserver.port", 5000)
	v.SetDefault("webserver.shutdowntime", 5)
	v.SetDefault("webserver.corsorigin", "http://localhost:3000")
	v.SetDefault("webserver.checkalive", "/api/health")
	v.SetDefault("auth.mode", AuthModeLocal)
	v.SetDefault("directory.backend", BackendLDAP)
	v.SetDefault("directory.userfilter", "(|(userPrincipalName={email})(mail={email}))")
	v.SetDefault("directory.authtimeout", 5*time.Second)
	v.SetDefault("directory.provisiontimeout", 30*time.Second)
	v.SetDefault("directory.script.command", "pwsh")
	v.SetDefault("directory.script.args", []string{"-NoProfile", "-NonInteractive", "-File"})
	v.SetDefault("password.algorithm", AlgorithmArgon2id)
	v.SetDefault("password.minlength", 6)
	v.SetDefault("token.issuer", "authenticator")
	v.SetDefault("token.ttl", 24*time.Hour)
	v.SetDefault("db.gormengine", "sqlite")
	v.SetDefault("db.name", "authenticator.db")
	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "authenticator")
	v.SetDefault("log.servicename", "authenticator")
	v.SetDefault("log.console.enabled", true)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// Redacted returns a copy of the config with every secret masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}

		return redacted
	}

	c.DB.Password = mask(c.DB.Password)
	c.Directory.BindPassword = mask(c.Directory.BindPassword)
	c.Token.Secret = mask(c.Token.Secret)
	c.Admin.Password = mask(c.Admin.Password)

	return c
}

// DumpConfig config as TOML String, secrets redacted.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c.Redacted()); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String, secrets redacted.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c.Redacted()); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without and fills defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	switch c.Auth.Mode {
	case "":
		c.Auth.Mode = AuthModeLocal
	case AuthModeLocal, AuthModeDirectory, AuthModeHybrid:
	default:
		return errors.Wrapf(ErrInvalidAuthMode, "%s: got %q", invalidErrMessage, c.Auth.Mode)
	}

	switch c.Directory.Backend {
	case "":
		c.Directory.Backend = BackendLDAP
	case BackendLDAP, BackendSimulated:
	case BackendScript:
		if c.Directory.Script.Command == "" {
			return errors.Wrap(ErrScriptCommandEmpty, invalidErrMessage)
		}
	default:
		return errors.Wrapf(ErrInvalidBackend, "%s: got %q", invalidErrMessage, c.Directory.Backend)
	}

	if c.Directory.AuthTimeout <= 0 {
		c.Directory.AuthTimeout = 5 * time.Second
	}

	if c.Directory.ProvisionTimeout <= 0 {
		c.Directory.ProvisionTimeout = 30 * time.Second
	}

	if err := validatePassword(&c.Password); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if len(c.Token.Secret) < minTokenSecretLen {
		return errors.Wrap(ErrTokenSecretTooShort, invalidErrMessage)
	}

	if c.Token.TTL <= 0 {
		c.Token.TTL = 24 * time.Hour
	}

	return nil
}

func validatePassword(p *Password) error {
	switch p.Algorithm {
	case "":
		p.Algorithm = AlgorithmArgon2id
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return ErrInvalidAlgorithm
	}

	if p.MinLength <= 0 {
		p.MinLength = 6
	}

	switch {
	case p.HashCost > 0 && p.Algorithm == AlgorithmBcrypt:
		p.HashCost = min(max(p.HashCost, bcrypt.MinCost), bcrypt.MaxCost)
	case p.HashCost > 0:
	case p.Algorithm == AlgorithmBcrypt:
		p.HashCost = 12 //nolint:mnd
	default:
		p.HashCost = 1
	}

	return nil
}
