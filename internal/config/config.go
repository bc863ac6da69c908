package config

import "os"

type Config struct {
	Addr           string
	DatabaseURL    string
	PasswordScheme string
}

func Load() Config {
	addr := os.Getenv("ACCOUNT_SERVICE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	scheme := os.Getenv("ACCOUNT_PASSWORD_SCHEME")
	if scheme == "" {
		scheme = "plaintext"
	}

	return Config{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PasswordScheme: scheme,
	}
}
