package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Manifest holds the mini-app manifest values that have no other use.
type Manifest struct {
	Header           string
	Payload          string
	Signature        string
	AllowedAddresses []string
	SplashColor      string
	PrimaryCategory  string
	HeroImage        string
	Tagline          string
	OGTitle          string
	OGDescription    string
	OGImage          string
}

type Config struct {
	Port    string
	Env     string
	LogFile string

	DBDSN        string
	ProductStore string // sqlite | mongo
	MongoURI     string
	MongoDB      string
	Collection   string

	CommerceAPIURL string
	CommerceAPIKey string
	WebhookSecret  string
	HTTPTimeout    time.Duration

	PublicURL      string
	AppName        string
	AppSubtitle    string
	AppDescription string
	AppIcon        string
	AppSplash      string
	Manifest       Manifest

	Storage     string // local | s3
	MediaDir    string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string
	S3AccessKey string
	S3SecretKey string

	RedisAddr string
	CacheTTL  time.Duration
}

func Load() Config {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	cfg := Config{
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("APP_ENV", "development"),
		LogFile: os.Getenv("LOG_FILE"),

		DBDSN:        getEnv("DB_DSN", "secondhand.db"),
		ProductStore: strings.ToLower(getEnv("PRODUCT_STORE", "sqlite")),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "secondhand"),
		Collection:   getEnv("PRODUCTS_COLLECTION", "products-template"),

		CommerceAPIURL: strings.TrimRight(getEnv("COMMERCE_API_URL", "https://api.commerce.coinbase.com"), "/"),
		CommerceAPIKey: os.Getenv("COINBASE_COMMERCE_API_KEY"),
		WebhookSecret:  os.Getenv("COINBASE_WEBHOOK_SECRET"),
		HTTPTimeout:    getDuration("HTTP_TIMEOUT", 10*time.Second),

		PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", getEnv("NEXT_PUBLIC_URL", "http://localhost:8080")), "/"),
		AppName:        getEnv("APP_NAME", "Secondhand Store"),
		AppSubtitle:    getEnv("APP_SUBTITLE", "Buy & sell secondhand items"),
		AppDescription: getEnv("APP_DESCRIPTION", "A marketplace for buying and selling quality secondhand children's items, toys, and essentials with crypto payments."),
		AppIcon:        os.Getenv("APP_ICON"),
		AppSplash:      os.Getenv("APP_SPLASH_IMAGE"),
		Manifest: Manifest{
			Header:           os.Getenv("FARCASTER_HEADER"),
			Payload:          os.Getenv("FARCASTER_PAYLOAD"),
			Signature:        os.Getenv("FARCASTER_SIGNATURE"),
			AllowedAddresses: splitList(getEnv("BASE_BUILDER_ADDRESSES", "0x14F6CBaa0c98202f29bFE871405bF2BC2F831AB6")),
			SplashColor:      getEnv("APP_SPLASH_BACKGROUND_COLOR", "#FFF7F3"),
			PrimaryCategory:  getEnv("APP_PRIMARY_CATEGORY", "shopping"),
			HeroImage:        os.Getenv("APP_HERO_IMAGE"),
			Tagline:          getEnv("APP_TAGLINE", "Sustainable shopping made easy"),
			OGTitle:          getEnv("APP_OG_TITLE", "Secondhand Store"),
			OGDescription:    getEnv("APP_OG_DESCRIPTION", "Buy & sell quality secondhand items with crypto"),
			OGImage:          os.Getenv("APP_OG_IMAGE"),
		},

		Storage:     strings.ToLower(getEnv("STORAGE", "local")),
		MediaDir:    getEnv("MEDIA_DIR", "./media"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3PublicURL: strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  getDuration("CACHE_TTL", 2*time.Minute),
	}

	// never print secrets, only whether they are set
	log.Printf("[config] PORT=%s APP_ENV=%s DB_DSN=%s PRODUCT_STORE=%s STORAGE=%s COMMERCE_API_KEY set=%t WEBHOOK_SECRET set=%t",
		cfg.Port, cfg.Env, cfg.DBDSN, cfg.ProductStore, cfg.Storage, cfg.CommerceAPIKey != "", cfg.WebhookSecret != "")
	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] bad %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
