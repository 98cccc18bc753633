package config

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // mysql, postgres or sqlite
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, or file path for sqlite
	Extras     string
	SSLMode    string

	ConnectRetries int // attempts before startup gives up, 0 retries forever
}
