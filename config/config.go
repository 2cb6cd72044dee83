package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds all application configuration. It is built once at startup
// and handed to each pipeline by value or pointer; nothing mutates it later.
type Config struct {
	Browser  BrowserConfig  `mapstructure:"browser"`
	Outreach OutreachConfig `mapstructure:"outreach"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Mailjet  MailjetConfig  `mapstructure:"mailjet"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Log      LogConfig      `mapstructure:"log"`
}

// BrowserConfig controls the Chrome instance driven by chromedp.
type BrowserConfig struct {
	Headless        bool   `mapstructure:"headless"`
	ChromeBin       string `mapstructure:"chrome_bin"`
	UserAgent       string `mapstructure:"user_agent"`
	PageTimeoutSecs int    `mapstructure:"page_timeout_secs"`
}

// OutreachConfig configures the webmail lead-registration pipeline.
type OutreachConfig struct {
	LeadsPath      string   `mapstructure:"leads_path"`
	ReportPath     string   `mapstructure:"report_path"`
	DelaySecs      int      `mapstructure:"delay_secs"`
	SenderEmail    string   `mapstructure:"sender_email"`
	To             []string `mapstructure:"to"`
	Cc             []string `mapstructure:"cc"`
	SessionFile    string   `mapstructure:"session_file"`
	InboxURL       string   `mapstructure:"inbox_url"`
	ProbeTimeoutMs int      `mapstructure:"probe_timeout_ms"`
	LoginAttempts  int      `mapstructure:"login_attempts"`
	NameColumns    []string `mapstructure:"name_columns"`
	PhoneColumns   []string `mapstructure:"phone_columns"`
	Subject        string   `mapstructure:"subject"`
	BodyTemplate   string   `mapstructure:"body_template"`
}

// MonitorConfig configures the regulatory portal scraper.
type MonitorConfig struct {
	PortalURL         string `mapstructure:"portal_url"`
	District          string `mapstructure:"district"`
	CheckpointPath    string `mapstructure:"checkpoint_path"`
	DefaultCheckpoint string `mapstructure:"default_checkpoint"`
	MaxPages          int    `mapstructure:"max_pages"`
	WaitTimeoutSecs   int    `mapstructure:"wait_timeout_secs"`
	SettleMs          int    `mapstructure:"settle_ms"`
	DetailSettleMs    int    `mapstructure:"detail_settle_ms"`
	BackSettleMs      int    `mapstructure:"back_settle_ms"`
	Subject           string `mapstructure:"subject"`
}

// MailjetConfig holds the transactional email API credentials used for digests.
type MailjetConfig struct {
	APIKey      string   `mapstructure:"api_key"`
	APISecret   string   `mapstructure:"api_secret"`
	BaseURL     string   `mapstructure:"base_url"`
	SenderEmail string   `mapstructure:"sender_email"`
	SenderName  string   `mapstructure:"sender_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// TelegramConfig enables the optional chat copy of the digest.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// ArchiveConfig selects where run results are archived. An empty driver
// disables archiving.
type ArchiveConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Delay returns the pause between consecutive outreach sends.
func (c OutreachConfig) Delay() time.Duration {
	return time.Duration(c.DelaySecs) * time.Second
}

// ProbeTimeout returns the wait budget for a single locator probe.
func (c OutreachConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

// WaitTimeout bounds each wait for a portal element.
func (c MonitorConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSecs) * time.Second
}

// Settle returns the pause after sorting or paging the results table.
func (c MonitorConfig) Settle() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}

// DetailSettle returns the pause after opening the project details tab.
func (c MonitorConfig) DetailSettle() time.Duration {
	return time.Duration(c.DetailSettleMs) * time.Millisecond
}

// BackSettle returns the pause after navigating back to the listing.
func (c MonitorConfig) BackSettle() time.Duration {
	return time.Duration(c.BackSettleMs) * time.Millisecond
}

// PageTimeout returns the overall budget for one browser step.
func (c BrowserConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSecs) * time.Second
}

// Load reads the .env file (if any), then config.yaml and REALTY_* env vars.
// An empty path searches the working directory for config.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("REALTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// setDefaults registers every key, including empty ones; AutomaticEnv only
// reaches Unmarshal for keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.chrome_bin", "")
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.page_timeout_secs", 60)

	v.SetDefault("outreach.leads_path", "./leads.csv")
	v.SetDefault("outreach.report_path", "./output/outreach_report.csv")
	v.SetDefault("outreach.delay_secs", 3)
	v.SetDefault("outreach.sender_email", "")
	v.SetDefault("outreach.to", []string{})
	v.SetDefault("outreach.cc", []string{})
	v.SetDefault("outreach.session_file", "gmail_session.json")
	v.SetDefault("outreach.inbox_url", "https://mail.google.com")
	v.SetDefault("outreach.probe_timeout_ms", 5000)
	v.SetDefault("outreach.login_attempts", 3)
	v.SetDefault("outreach.name_columns", []string{"Name"})
	v.SetDefault("outreach.phone_columns", []string{"Mobile", "Phone"})
	v.SetDefault("outreach.subject", DefaultLeadSubject)
	v.SetDefault("outreach.body_template", DefaultLeadBody)

	v.SetDefault("monitor.portal_url", "https://rera.karnataka.gov.in/viewAllProjects")
	v.SetDefault("monitor.district", "Bengaluru Urban")
	v.SetDefault("monitor.checkpoint_path", "stored_identifier.json")
	v.SetDefault("monitor.default_checkpoint", "PRM/KA/RERA/1251/309/PR/070225/007490")
	v.SetDefault("monitor.max_pages", 50)
	v.SetDefault("monitor.wait_timeout_secs", 10)
	v.SetDefault("monitor.settle_ms", 2000)
	v.SetDefault("monitor.detail_settle_ms", 3000)
	v.SetDefault("monitor.back_settle_ms", 5000)
	v.SetDefault("monitor.subject", "New RERA Projects Update")

	v.SetDefault("mailjet.api_key", "")
	v.SetDefault("mailjet.api_secret", "")
	v.SetDefault("mailjet.base_url", "https://api.mailjet.com")
	v.SetDefault("mailjet.sender_email", "")
	v.SetDefault("mailjet.sender_name", "No Reply")
	v.SetDefault("mailjet.recipients", []string{})

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("archive.driver", "")
	v.SetDefault("archive.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// ValidateOutreach reports settings the outreach pipeline cannot run without.
func (c *Config) ValidateOutreach() error {
	return c.Outreach.Validate()
}

// Validate reports settings the outreach pipeline cannot run without.
func (c OutreachConfig) Validate() error {
	switch {
	case c.LeadsPath == "":
		return eris.New("config: outreach.leads_path is required")
	case len(c.To) == 0:
		return eris.New("config: outreach.to needs at least one recipient")
	case c.DelaySecs < 0:
		return eris.New("config: outreach.delay_secs must not be negative")
	}
	return nil
}

// ValidateMonitor reports settings the monitor pipeline cannot run without.
func (c *Config) ValidateMonitor() error {
	switch {
	case c.Monitor.PortalURL == "":
		return eris.New("config: monitor.portal_url is required")
	case c.Monitor.CheckpointPath == "":
		return eris.New("config: monitor.checkpoint_path is required")
	case c.Mailjet.APIKey == "" || c.Mailjet.APISecret == "":
		return eris.New("config: mailjet.api_key and mailjet.api_secret are required")
	case c.Mailjet.SenderEmail == "":
		return eris.New("config: mailjet.sender_email is required")
	case len(c.Mailjet.Recipients) == 0:
		return eris.New("config: mailjet.recipients needs at least one address")
	}
	return nil
}
