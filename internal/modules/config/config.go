package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "configs/values_local.yaml"
)

type Config struct {
	Service   Service   `mapstructure:"service"`
	Telegram  Telegram  `mapstructure:"telegram"`
	Market    Market    `mapstructure:"market"`
	Analysis  Analysis  `mapstructure:"analysis"`
	Simulator Simulator `mapstructure:"simulator"`
	Storage   Storage   `mapstructure:"storage"`
	HTTP      HTTP      `mapstructure:"http"`
	Health    Health    `mapstructure:"health"`
	Tracing   Tracing   `mapstructure:"tracing"`
}

type Service struct {
	Name        string `mapstructure:"name"`
	LogLevel    string `mapstructure:"log_level"`
	Development bool   `mapstructure:"development"`
}

type Telegram struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	// ChatID владельца профиля. 0 отвечает любому чату.
	ChatID int64 `mapstructure:"chat_id"`
}

type Asset struct {
	ID     string `mapstructure:"id"`
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
	Pair   string `mapstructure:"pair"`
}

type Market struct {
	CoinGeckoURL    string        `mapstructure:"coingecko_url"`
	BinanceURL      string        `mapstructure:"binance_url"`
	StreamURL       string        `mapstructure:"stream_url"`
	StreamEnabled   bool          `mapstructure:"stream_enabled"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	Assets          []Asset       `mapstructure:"assets"`
}

type Analysis struct {
	Pairs        []string      `mapstructure:"pairs"`
	Interval     time.Duration `mapstructure:"interval"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	SignalTTL    time.Duration `mapstructure:"signal_ttl"`
	FeedSize     int           `mapstructure:"feed_size"`
	// Seed 0 значит сид от времени.
	Seed   int64 `mapstructure:"seed"`
	Notify bool  `mapstructure:"notify"`
}

type Simulator struct {
	Profile           string        `mapstructure:"profile"`
	StartingCredits   float64       `mapstructure:"starting_credits"`
	TradeXP           int           `mapstructure:"trade_xp"`
	LessonXP          int           `mapstructure:"lesson_xp"`
	QuickTradeCredits float64       `mapstructure:"quick_trade_credits"`
	FlushInterval     time.Duration `mapstructure:"flush_interval"`
}

type Storage struct {
	Driver        string `mapstructure:"driver"`
	FilePath      string `mapstructure:"file_path"`
	DSN           string `mapstructure:"dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type HTTP struct {
	Enabled        bool     `mapstructure:"enabled"`
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Health struct {
	Addr string `mapstructure:"addr"`
}

type Tracing struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "cryptosim")
	v.SetDefault("service.log_level", "info")

	v.SetDefault("telegram.enabled", true)

	v.SetDefault("market.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.binance_url", "https://api.binance.com")
	v.SetDefault("market.stream_url", "wss://stream.binance.com:9443/stream")
	v.SetDefault("market.refresh_interval", 30*time.Second)
	v.SetDefault("market.http_timeout", 10*time.Second)

	v.SetDefault("analysis.pairs", []string{"BTCUSDT", "ETHUSDT", "ADAUSDT"})
	v.SetDefault("analysis.interval", 2*time.Minute)
	v.SetDefault("analysis.request_delay", time.Second)
	v.SetDefault("analysis.signal_ttl", 24*time.Hour)
	v.SetDefault("analysis.feed_size", 20)
	v.SetDefault("analysis.notify", true)

	v.SetDefault("simulator.profile", "default")
	v.SetDefault("simulator.starting_credits", 10000.0)
	v.SetDefault("simulator.trade_xp", 10)
	v.SetDefault("simulator.lesson_xp", 50)
	v.SetDefault("simulator.quick_trade_credits", 100.0)
	v.SetDefault("simulator.flush_interval", 30*time.Second)

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.file_path", "data/profile.json")
	v.SetDefault("storage.redis_addr", "localhost:6379")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8090")
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("health.addr", ":8080")

	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
}

// DefaultAssets каталог, когда в конфиге список пуст.
func DefaultAssets() []Asset {
	return []Asset{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Pair: "BTCUSDT"},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Pair: "ETHUSDT"},
		{ID: "cardano", Symbol: "ADA", Name: "Cardano", Pair: "ADAUSDT"},
		{ID: "solana", Symbol: "SOL", Name: "Solana", Pair: "SOLUSDT"},
		{ID: "ripple", Symbol: "XRP", Name: "XRP", Pair: "XRPUSDT"},
	}
}

func NewConfig() (*Config, error) {
	// .env опционален
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindings := map[string]string{
		"telegram.token":     "TELEGRAM_TOKEN",
		"telegram.chat_id":   "TELEGRAM_CHAT_ID",
		"storage.dsn":        "DATABASE_DSN",
		"storage.redis_addr": "REDIS_ADDR",
		"storage.driver":     "STORAGE_DRIVER",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", env)
		}
	}

	path := os.Getenv(configFilePathENV)
	if path == "" {
		path = defaultConfigFile
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) && !isNotFound(err) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if len(cfg.Market.Assets) == 0 {
		cfg.Market.Assets = DefaultAssets()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var pe *os.PathError
	return errors.As(err, &pe)
}

func (c *Config) Validate() error {
	if len(c.Market.Assets) == 0 {
		return errors.New("config: market.assets is empty")
	}
	for _, a := range c.Market.Assets {
		if a.ID == "" || a.Symbol == "" {
			return errors.Errorf("config: asset %+v needs id and symbol", a)
		}
	}
	if c.Market.RefreshInterval <= 0 || c.Analysis.Interval <= 0 || c.Simulator.FlushInterval <= 0 {
		return errors.New("config: intervals must be positive")
	}
	if c.Analysis.FeedSize <= 0 {
		return errors.New("config: analysis.feed_size must be positive")
	}
	if c.Simulator.StartingCredits < 0 {
		return errors.New("config: simulator.starting_credits must be >= 0")
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverPostgres, DriverRedis:
	default:
		return errors.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.DSN == "" {
		return errors.New("config: storage.dsn is required for postgres")
	}
	return nil
}

// AssetByPair ищет актив каталога по тикеру биржи.
func (c *Config) AssetByPair(pair string) (Asset, bool) {
	pair = strings.ToUpper(pair)
	for _, a := range c.Market.Assets {
		if strings.ToUpper(a.Pair) == pair {
			return a, true
		}
	}
	return Asset{}, false
}
