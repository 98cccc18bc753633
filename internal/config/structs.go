package config

import (
	"time"

	"github.com/authenticator/authenticator/internal/logger"
)

// Authentication modes accepted by Auth.Mode.
const (
	AuthModeLocal     = "local"
	AuthModeDirectory = "directory"
	AuthModeHybrid    = "hybrid"
)

// Directory backends accepted by Directory.Backend.
const (
	BackendLDAP      = "ldap"
	BackendScript    = "script"
	BackendSimulated = "simulated"
)

// Password hashing algorithms accepted by Password.Algorithm.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Directory Directory
	Password  Password
	Token     Token
	Admin     Admin
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int    // listening port for the webserver
	URL          string // base url for the webserver
	ShutDownTime int    // wait time for shutdown in seconds
	CORSOrigin   string // allowed origin of the browser client
	CheckAlive   string // uri answered by the load balancer check
}

// Auth selects the credential authority used at login.
type Auth struct {
	Mode string // local, directory or hybrid
}

// Directory holds the external directory connection and provisioning settings.
type Directory struct {
	Backend             string // ldap, script or simulated
	ProvisioningEnabled bool

	URL          string // ldap://host:389 or ldaps://host:636
	BaseDN       string
	BindDN       string
	BindPassword string
	Domain       string
	UsersOU      string // container for provisioned accounts, defaults to CN=Users,<BaseDN>
	UserFilter   string // {email} is replaced with the escaped login email
	StartTLS     bool
	SkipVerify   bool

	AuthTimeout      time.Duration // bound for bind and lookup calls
	ProvisionTimeout time.Duration // bound for lifecycle calls

	Script Script
}

// Script configures the external automation tool used by the script backend.
type Script struct {
	Command string   // executable, e.g. pwsh
	Args    []string // arguments placed before the script file path
	TempDir string   // where script payloads are written, os.TempDir() when empty
}

// Password configures the one-way password function.
type Password struct {
	Algorithm string // argon2id or bcrypt
	HashCost  int
	MinLength int
}

// Token configures signed credential issuance.
type Token struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Admin is the superadmin account seeded on first start.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// UsersContainer returns the directory container new accounts are created in.
func (d Directory) UsersContainer() string {
	if d.UsersOU != "" {
		return d.UsersOU
	}

	return "CN=Users," + d.BaseDN
}

// Complete reports whether all directory connection parameters are present.
func (d Directory) Complete() bool {
	return d.URL != "" && d.BaseDN != "" && d.BindDN != "" && d.BindPassword != ""
}
