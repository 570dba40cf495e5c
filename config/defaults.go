package config

import (
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/condition"
)

// Default returns the configuration used for keys missing from file and environment.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:      "info",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		Suggest: SuggestConfig{
			BaseURL:   "",
			RetryMax:  3,
			Timeout:   "10s",
			CacheSize: 256,
			CacheTTL:  "5m",
		},
		Limits: *casefilter.DefaultLimits,
		Fields: []casefilter.FieldConfig{},
	}
}

// Example is the default configuration with a few typical case fields.
func Example() Config {
	cfg := Default()
	cfg.Fields = []casefilter.FieldConfig{
		{
			ID:                   "amount",
			DisplayName:          "Order amount",
			Category:             "order",
			Description:          "Total amount of the order attached to the case",
			AcceptableConditions: []condition.Tag{condition.Between, condition.NotBetween, condition.Greater, condition.Less, condition.Equal},
			LowerBound:           lo.ToPtr("0"),
			UpperBound:           lo.ToPtr("999"),
		},
		{
			ID:                   "subject",
			DisplayName:          "Subject",
			Category:             "case",
			Description:          "Subject line of the case",
			AcceptableConditions: []condition.Tag{condition.Contains, condition.NotContains, condition.StartsWith, condition.Regexp},
		},
		{
			ID:                   "country",
			DisplayName:          "Country",
			Category:             "customer",
			Description:          "Billing country of the customer",
			AcceptableConditions: []condition.Tag{condition.In, condition.NotIn},
		},
		{
			ID:                   "opened_at",
			DisplayName:          "Opened",
			Category:             "case",
			Description:          "When the case was opened",
			AcceptableConditions: []condition.Tag{condition.BeforeDate, condition.AfterDate, condition.BetweenDate},
		},
		{
			ID:                   "escalated",
			DisplayName:          "Escalated",
			Category:             "case",
			Description:          "Whether the case was escalated",
			AcceptableConditions: []condition.Tag{condition.IsTrue},
		},
	}
	return cfg
}

// ExampleYAML renders Example as a configuration file.
func ExampleYAML() ([]byte, error) {
	return yaml.Marshal(Example())
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.time_format", defaults.Log.TimeFormat)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.no_color", defaults.Log.NoColor)
	v.SetDefault("log.json", defaults.Log.JSON)
	v.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	v.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	v.SetDefault("suggest.base_url", defaults.Suggest.BaseURL)
	v.SetDefault("suggest.retry_max", defaults.Suggest.RetryMax)
	v.SetDefault("suggest.timeout", defaults.Suggest.Timeout)
	v.SetDefault("suggest.cache_size", defaults.Suggest.CacheSize)
	v.SetDefault("suggest.cache_ttl", defaults.Suggest.CacheTTL)

	v.SetDefault("limits.max_fields", defaults.Limits.MaxFields)
	v.SetDefault("limits.max_conditions", defaults.Limits.MaxConditions)
	v.SetDefault("limits.max_list_values", defaults.Limits.MaxListValues)
	v.SetDefault("limits.max_value_length", defaults.Limits.MaxValueLength)
}
