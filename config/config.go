package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"walletwatch/log"
	"walletwatch/wallet"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type config struct {
	// Database is the path of the sqlite database file.
	Database string

	// Label sets log output prefix.
	Label string

	// BaseURL is the listing URL template. It must contain a single '%s'
	// placeholder which receives "" for page 1 and "-<n>" for later pages.
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`

	// Pages is the default number of listing pages per collection cycle.
	Pages int

	// FetchTimeout and PageDelay are in seconds.
	FetchTimeout int `mapstructure:"fetch_timeout"`
	PageDelay    int `mapstructure:"page_delay"`

	// ScheduleHour is the wall-clock hour of the daily collection run.
	ScheduleHour int `mapstructure:"schedule_hour"`

	// Listen is the HTTP API bind address.
	Listen string

	// AliyunMail is an optional config which will be used in mail alert package.
	AliyunMail AliyunMailConfig `mapstructure:"aliyun_mail"`
}

// AliyunMailConfig is the struct for aliyun mail configs.
type AliyunMailConfig struct {
	AccountName     string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	Receiver        []string
}

var cfg config

// Load reads and validates the config file, then watches it for changes.
func Load(display bool) {
	viper.SetConfigName("config")
	viper.AddConfigPath("./config")
	// Incase test cases require loading configs.
	viper.AddConfigPath("../config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}

	if err := load(display); err != nil {
		panic(err)
	}

	log.UpdatePrefix(GetLabel())

	viper.WatchConfig()
	viper.OnConfigChange(onConfigChange)
}

func setDefaults() {
	viper.SetDefault("database", "btc_wallets.db")
	viper.SetDefault("base_url", "https://bitinfocharts.com/top-100-richest-bitcoin-addresses%s.html")
	viper.SetDefault("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	viper.SetDefault("pages", 20)
	viper.SetDefault("fetch_timeout", 10)
	viper.SetDefault("page_delay", 2)
	viper.SetDefault("schedule_hour", 0)
	viper.SetDefault("listen", ":8080")
}

// load unmarshals and validates the current viper state. The live config is
// replaced only after the new values pass every check, so a rejected reload
// cannot leak partial values into a running process.
func load(display bool) error {
	var next config

	err := viper.Unmarshal(&next)
	if err != nil {
		return err
	}

	if err := check(next); err != nil {
		return err
	}

	cfg = next

	if display {
		configContent, _ := json.MarshalIndent(cfg, "", "    ")
		log.Println(string(configContent))
	}

	return nil
}

// GetDBPath returns the sqlite database file path.
func GetDBPath() string {
	return cfg.Database
}

// GetLabel returns custom label as console output prefix.
func GetLabel() string {
	return cfg.Label
}

// GetBaseURL returns the listing URL template.
func GetBaseURL() string {
	return cfg.BaseURL
}

// GetUserAgent returns the User-Agent header for outbound requests.
func GetUserAgent() string {
	return cfg.UserAgent
}

// GetPages returns the default page count per collection cycle.
func GetPages() int {
	return cfg.Pages
}

// GetFetchTimeout returns the per-page fetch timeout.
func GetFetchTimeout() time.Duration {
	return time.Duration(cfg.FetchTimeout) * time.Second
}

// GetPageDelay returns the pause between page fetches.
func GetPageDelay() time.Duration {
	return time.Duration(cfg.PageDelay) * time.Second
}

// GetScheduleHour returns the hour of the daily collection run.
func GetScheduleHour() int {
	return cfg.ScheduleHour
}

// GetListen returns the HTTP API bind address.
func GetListen() string {
	return cfg.Listen
}

// LoadAliyunMailConfig performs a basic check on aliyun mail config.
func LoadAliyunMailConfig() error {
	if err := checkAliyunMail(cfg.AliyunMail); err != nil {
		return err
	}

	return nil
}

// GetAliyunMailConfig returns aliyun mail configs.
func GetAliyunMailConfig() AliyunMailConfig {
	return cfg.AliyunMail
}

func check(c config) error {
	if err := checkPages(c); err != nil {
		return err
	}

	if err := checkBaseURL(c); err != nil {
		return err
	}

	if err := checkSchedule(c); err != nil {
		return err
	}

	if err := checkTimings(c); err != nil {
		return err
	}

	if c.Database == "" {
		return errors.New("database path cannot be empty")
	}

	if c.Listen == "" {
		return errors.New("listen address cannot be empty")
	}

	return nil
}

func checkPages(c config) error {
	if c.Pages < wallet.MinPages || c.Pages > wallet.MaxPages {
		return wallet.ErrPageCount
	}
	return nil
}

func checkBaseURL(c config) error {
	if !strings.HasPrefix(c.BaseURL, "http") {
		return errors.New("base_url must be an http(s) url")
	}

	if strings.Count(c.BaseURL, "%s") != 1 {
		return errors.New("base_url must contain exactly one '%s' page placeholder")
	}

	return nil
}

func checkSchedule(c config) error {
	if c.ScheduleHour < 0 || c.ScheduleHour > 23 {
		return fmt.Errorf("schedule_hour must be between 0 and 23, got %d", c.ScheduleHour)
	}
	return nil
}

func checkTimings(c config) error {
	if c.FetchTimeout < 1 {
		return errors.New("fetch_timeout must be at least 1 second")
	}

	if c.PageDelay < 0 {
		return errors.New("page_delay cannot be negative")
	}

	return nil
}

func checkAliyunMail(m AliyunMailConfig) error {
	if m.AccountName == "" {
		return errors.New("aliyun mail account name cannot be empty")
	}

	if m.Region == "" {
		return errors.New("aliyun mail region cannot be empty")
	}

	if m.AccessKeyID == "" {
		return errors.New("aliyun mail accessKeyID cannot be empty")
	}

	if m.AccessKeySecret == "" {
		return errors.New("aliyun mail accessKeySecret cannot be empty")
	}

	if len(m.Receiver) == 0 {
		return errors.New("aliyun mail receiver cannot be empty")
	}

	return nil
}

func onConfigChange(e fsnotify.Event) {
	log.Printf("Config file change detected: %s", e.Name)

	const stdErr = "Failed to read new configuration, current configuration stay unchanged"

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("%s: %s", stdErr, err)
		return
	}

	if err := load(true); err != nil {
		log.Printf("%s: %s", stdErr, err)
		return
	}

	log.UpdatePrefix(GetLabel())
}
