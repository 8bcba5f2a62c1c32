package cryptopay

import "time"

type Config struct {
	BaseURL       string        `envconfig:"BASE_URL" default:"https://pay.crypt.bot/api"`
	Token         string        `envconfig:"TOKEN" required:"true"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"15s"`
	InvoiceTTL    time.Duration `envconfig:"INVOICE_TTL" default:"1h"`
	VerifyWebhook bool          `envconfig:"VERIFY_WEBHOOK" default:"true"`
	CallbackURL   string        `envconfig:"CALLBACK_URL"`
}

// ClampTimeout держит таймаут в пределах 8-20 секунд
func (c *Config) ClampTimeout() time.Duration {
	switch {
	case c.Timeout <= 0:
		return 15 * time.Second
	case c.Timeout < 8*time.Second:
		return 8 * time.Second
	case c.Timeout > 20*time.Second:
		return 20 * time.Second
	default:
		return c.Timeout
	}
}
