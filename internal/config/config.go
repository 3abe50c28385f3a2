package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"production"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Listen struct {
		Client string `env:"CLIENT_LISTEN_ADDR" env-default:":81"`
		Public string `env:"PUBLIC_LISTEN_ADDR" env-default:":82"`
	}

	AWS struct {
		Region           string `env:"AWS_REGION" env-required:"true"`
		AccessKeyID      string `env:"AWS_ID"`
		SecretAccessKey  string `env:"AWS_SECRET"`
		SessionToken     string `env:"AWS_TOKEN"`
		DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`
	}

	Redis struct {
		Addr          string `env:"EVENTS_REDIS_URL"`
		Password      string `env:"EVENTS_REDIS_PASS"`
		ChannelPrefix string `env:"EVENTS_CHANNEL_PREFIX" env-default:"chatbot"`
	}

	Auth struct {
		UserSecret string `env:"USER_SECRET" env-required:"true"`
	}

	// PublicBaseURL is where embed pages and widget scripts are served from.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-required:"true"`

	CORS struct {
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	}

	Queue struct {
		Size    int `env:"QUEUE_SIZE" env-default:"10"`
		Workers int `env:"QUEUE_WORKERS" env-default:"10"`
	}

	Chat struct {
		MaxMessageLength int `env:"CHAT_MAX_MESSAGE_LENGTH" env-default:"1000"`
		CommitAttempts   int `env:"CHAT_COMMIT_ATTEMPTS" env-default:"3"`
	}
}

var (
	instance *Config
	once     sync.Once
)

// MustLoad reads the configuration from the environment once and exits the
// process when a required variable is missing.
func MustLoad() *Config {
	once.Do(func() {
		cfg := &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			desc, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatal(fmt.Errorf("%s; %s", err, desc))
		}
		instance = cfg
	})
	return instance
}
