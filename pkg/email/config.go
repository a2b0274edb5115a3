package email

// Config holds email service configuration.
// The Postmark token is optional so development environments can run with DevSender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	MessageStream        string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	DevOutputDir         string `env:"EMAIL_DEV_OUTPUT_DIR" envDefault:"./tmp/emails"`
	CatalogPath          string `env:"EMAIL_CATALOG_PATH"` // empty uses the embedded catalog
}

// UsePostmark reports whether the Postmark sender can be built from cfg.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != ""
}
