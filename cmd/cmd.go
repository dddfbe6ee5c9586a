package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "emspay-gateway",
	Short: "EMS hosted payment gateway",
	Long:  `Checkout bridge that snapshots payment details and redirects shoppers to the EMS hosted payment page.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// envManaged is true in containers, where settings come from the environment
// instead of config.yml.
func envManaged() bool {
	return os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true"
}

// loadConfig reads, defaults and validates the settings, then configures the
// process logger from them.
func loadConfig(path string) (*internal.Config, error) {
	var (
		cfg *internal.Config
		err error
	)
	if envManaged() {
		cfg = internal.LoadConfigFromEnv()
	} else if cfg, err = readConfigFile(path); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Configure(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	return cfg, nil
}

// readConfigFile loads <path>/config.yml. ENV_-prefixed variables override
// keys, e.g. ENV_GATEWAY_SHARED_SECRET for gateway.shared_secret.
func readConfigFile(path string) (*internal.Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd, migrateCmd, seedCmd)
}
