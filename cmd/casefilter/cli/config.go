package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theplant/casefilter/condition"
	"github.com/theplant/casefilter/config"
)

var envFiles = []string{".env", ".env.local"}

func initConfig(path string) error {
	// Missing .env files are ignored.
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}

	if path != "" {
		viper.SetConfigFile(path)
		configDir := filepath.Dir(path)
		for _, envFile := range envFiles {
			_ = godotenv.Load(filepath.Join(configDir, envFile))
		}
	} else {
		viper.SetConfigName("casefilter")
		viper.SetConfigType("yaml")

		configPaths := []string{".", "./config", "/etc/casefilter", "$HOME/.casefilter"}
		for _, configPath := range configPaths {
			viper.AddConfigPath(configPath)
			for _, envFile := range envFiles {
				_ = godotenv.Load(filepath.Join(os.ExpandEnv(configPath), envFile))
			}
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "error reading config file")
		}
	}

	return nil
}

// env is what every command needs after the configuration is read.
type env struct {
	cfg     *config.Config
	logger  zerolog.Logger
	factory *condition.Factory
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	factory := condition.NewFactory()
	if err := cfg.Validate(factory); err != nil {
		return nil, errors.Wrap(err, "invalid field configuration")
	}
	return &env{
		cfg:     cfg,
		logger:  logger,
		factory: factory,
	}, nil
}
