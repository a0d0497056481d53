package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsieve"
)

type Config struct {
	Source  *SourceConfig  `mapstructure:"source"`
	Profile *ProfileConfig `mapstructure:"profile"`
	Filters *FilterConfig  `mapstructure:"filters"`
	Enrich  *EnrichConfig  `mapstructure:"enrich"`
	Output  *OutputConfig  `mapstructure:"output"`
}

type SourceConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Boards    []string      `mapstructure:"boards"`
	TokenFile string        `mapstructure:"token-file"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ProfileConfig struct {
	TargetRoles []string `mapstructure:"target-roles"`
	Skills      []string `mapstructure:"skills"`
}

type FilterConfig struct {
	MinScore         int  `mapstructure:"min-score"`
	CheckSponsorship bool `mapstructure:"check-sponsorship"`
	TopPerCompany    int  `mapstructure:"top-per-company"`
}

type EnrichConfig struct {
	Workers      int           `mapstructure:"workers"`
	Deadline     time.Duration `mapstructure:"deadline"`
	FetchTimeout time.Duration `mapstructure:"fetch-timeout"`
	RatePerSec   float64       `mapstructure:"rate-per-sec"`
}

type OutputConfig struct {
	File string `mapstructure:"file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsieve ingests raw job postings, scores and filters them, and enriches the survivors for document generation",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("source.token-file", "JOBSIEVE_TOKEN_FILE"); err != nil {
		log.Fatalf("binding JOBSIEVE_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsieve.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, nil
}

// applyDefaults fills the optional knobs a config file may omit.
func applyDefaults(config *Config) {
	if config.Profile == nil {
		config.Profile = &ProfileConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FilterConfig{}
	}
	if config.Enrich == nil {
		config.Enrich = &EnrichConfig{}
	}
	if config.Output == nil {
		config.Output = &OutputConfig{}
	}
	if config.Filters.TopPerCompany == 0 {
		config.Filters.TopPerCompany = 2
	}
	if config.Enrich.Workers == 0 {
		config.Enrich.Workers = 4
	}
	if config.Enrich.Deadline == 0 {
		config.Enrich.Deadline = 90 * time.Second
	}
	if config.Enrich.FetchTimeout == 0 {
		config.Enrich.FetchTimeout = 15 * time.Second
	}
	if config.Enrich.RatePerSec == 0 {
		config.Enrich.RatePerSec = 2
	}
	if config.Source.Timeout == 0 {
		config.Source.Timeout = 2 * time.Minute
	}
}
