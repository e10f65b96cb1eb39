package email

// Config holds email service configuration.
// Postmark tokens are optional so development setups can use DevSender instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	// DevDir is where DevSender writes emails when Postmark is not configured.
	DevDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// HasPostmark reports whether both Postmark tokens are set.
func (c Config) HasPostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
