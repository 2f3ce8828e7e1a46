package database

// Config is a subset of the configuration focusing solely
// on database connection items. The keys match the connection
// file format used by the mission tooling (host, port, database,
// user, password).
type Config struct {
	Host       string `json:"host" yaml:"host" toml:"host" env:"DB_HOST" env-default:"localhost" validate:"required"`
	Port       int    `json:"port" yaml:"port" toml:"port" env:"DB_PORT" env-default:"5432" validate:"min=1,max=65535"`
	Name       string `json:"database" yaml:"database" toml:"database" env:"DB_NAME" validate:"required"`
	User       string `json:"user" yaml:"user" toml:"user" env:"DB_USER" validate:"required"`
	Password   string `json:"password" yaml:"password" toml:"password" env:"DB_PASSWORD"`
	SSLMode    string `json:"sslmode" yaml:"sslmode" toml:"sslmode" env:"DB_SSLMODE" env-default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	LogQueries bool   `json:"log_queries" yaml:"log_queries" toml:"log_queries" env:"LOG_QUERIES"`
}
