package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL" envDefault:"entitlements.db"`

	Store Store `envPrefix:"STORE_"`
}

type Store struct {
	// ProductIDs is the full set of skus the catalog loads at startup and
	// the ledger scans for persisted balances.
	ProductIDs []string `env:"PRODUCT_IDS" envSeparator:"," envDefault:"nonconsumable.lifetime,consumable.week,subscription.yearly,nonrenewable.year"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
