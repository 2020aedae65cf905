package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	"github.com/WangWilly/xCrawl/pkgs/database"
	"gopkg.in/yaml.v3"
)

////////////////////////////////////////////////////////////////////////////////
// Configuration Structures
////////////////////////////////////////////////////////////////////////////////

// Credentials is the API key tuple. The access token pair is optional; without
// it requests are made with an app-only token.
type Credentials struct {
	ConsumerKey       string `yaml:"consumer_key"`
	ConsumerSecret    string `yaml:"consumer_secret"`
	AccessToken       string `yaml:"access_token,omitempty"`
	AccessTokenSecret string `yaml:"access_token_secret,omitempty"`
}

type Crawl struct {
	// MinTweets is the tweet threshold of the first200 download.
	MinTweets int `yaml:"min_tweets"`
	// Workers is the number of users downloaded at once. Workers share the
	// same endpoints and so the same budgets.
	Workers int `yaml:"workers"`
	// PacingPerSecond spaces calls on each endpoint. Zero disables it.
	PacingPerSecond float64 `yaml:"pacing_per_second,omitempty"`
}

// Config represents the main application configuration
type Config struct {
	RootPath    string                  `yaml:"root_path"`
	Credentials Credentials             `yaml:"credentials"`
	Database    database.DatabaseConfig `yaml:"database"`
	Crawl       Crawl                   `yaml:"crawl"`
	MetricsAddr string                  `yaml:"metrics_addr,omitempty"`
}

const (
	DEFAULT_MIN_TWEETS = 100
	DEFAULT_WORKERS    = 1
)

////////////////////////////////////////////////////////////////////////////////
// Configuration Management Functions
////////////////////////////////////////////////////////////////////////////////

// ReadConfig reads configuration from the specified path
func ReadConfig(path string) (*Config, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var result Config
	err = yaml.Unmarshal(data, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// WriteConfig writes configuration to the specified path
func WriteConfig(path string, conf *Config) error {
	file, err := os.OpenFile(path, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	_, err = io.Copy(file, bytes.NewReader(data))
	return err
}

// PromptConfig interactively prompts user for configuration and saves it
func PromptConfig(saveto string) (*Config, error) {
	return promptConfig(os.Stdin, os.Stdout, saveto)
}

func promptConfig(in io.Reader, out io.Writer, saveto string) (*Config, error) {
	conf := Config{}
	scan := bufio.NewScanner(in)
	ask := func(prompt string) string {
		fmt.Fprint(out, prompt)
		scan.Scan()
		return scan.Text()
	}

	storePath := ask("enter storage dir: ")
	// ensure path is available
	err := os.MkdirAll(storePath, 0755)
	if err != nil {
		return nil, err
	}
	storePath, err = filepath.Abs(storePath)
	if err != nil {
		return nil, err
	}
	conf.RootPath = storePath

	conf.Credentials.ConsumerKey = ask("enter consumer key: ")
	conf.Credentials.ConsumerSecret = ask("enter consumer secret: ")
	conf.Credentials.AccessToken = ask("enter access token (empty for app-only auth): ")
	conf.Credentials.AccessTokenSecret = ask("enter access token secret: ")

	if workers := ask("enter download workers: "); workers != "" {
		conf.Crawl.Workers, err = strconv.Atoi(workers)
		if err != nil {
			return nil, err
		}
	}

	conf.ResolveEnv()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, WriteConfig(saveto, &conf)
}

////////////////////////////////////////////////////////////////////////////////
// Defaults, Environment and Validation
////////////////////////////////////////////////////////////////////////////////

// ResolveEnv fills empty credentials from X_* environment variables and applies
// defaults.
func (c *Config) ResolveEnv() {
	setFromEnv(&c.Credentials.ConsumerKey, "X_CONSUMER_KEY")
	setFromEnv(&c.Credentials.ConsumerSecret, "X_CONSUMER_SECRET")
	setFromEnv(&c.Credentials.AccessToken, "X_ACCESS_TOKEN")
	setFromEnv(&c.Credentials.AccessTokenSecret, "X_ACCESS_TOKEN_SECRET")
	setFromEnv(&c.MetricsAddr, "METRICS_ADDR")

	if c.Crawl.MinTweets <= 0 {
		c.Crawl.MinTweets = DEFAULT_MIN_TWEETS
	}
	if c.Crawl.Workers <= 0 {
		c.Crawl.Workers = DEFAULT_WORKERS
	}
	if c.Database.Type == "" {
		c.Database.Type = database.DATABASE_TYPE_SQLITE
	}
	if c.Database.Type == database.DATABASE_TYPE_SQLITE && c.Database.Path == "" && c.RootPath != "" {
		c.Database.Path = filepath.Join(c.RootPath, ".data", storage.DB_NAME)
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.RootPath == "" {
		errs = append(errs, errors.New("root_path is required"))
	}
	if c.Credentials.ConsumerKey == "" || c.Credentials.ConsumerSecret == "" {
		errs = append(errs, errors.New("credentials.consumer_key and credentials.consumer_secret are required"))
	}
	if (c.Credentials.AccessToken == "") != (c.Credentials.AccessTokenSecret == "") {
		errs = append(errs, errors.New("access_token and access_token_secret must be set together"))
	}
	return errors.Join(errs...)
}

// TwitterCredentials converts the configured tuple for the API client.
func (c *Config) TwitterCredentials() twitterclient.Credentials {
	return twitterclient.Credentials{
		ConsumerKey:       c.Credentials.ConsumerKey,
		ConsumerSecret:    c.Credentials.ConsumerSecret,
		AccessToken:       c.Credentials.AccessToken,
		AccessTokenSecret: c.Credentials.AccessTokenSecret,
	}
}

func setFromEnv(dst *string, key string) {
	if *dst != "" {
		return
	}
	*dst = os.Getenv(key)
}
