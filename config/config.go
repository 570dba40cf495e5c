package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/condition"
)

// EnvPrefix prefixes environment overrides, e.g. CASEFILTER_LOG_LEVEL.
const EnvPrefix = "CASEFILTER"

// Config is the complete casefilter configuration file.
type Config struct {
	Log     LogConfig                `mapstructure:"log"     yaml:"log"`
	Suggest SuggestConfig            `mapstructure:"suggest" yaml:"suggest"`
	Limits  casefilter.Limits        `mapstructure:"limits"  yaml:"limits"`
	Fields  []casefilter.FieldConfig `mapstructure:"fields"  yaml:"fields"`
}

// Load unmarshals v on top of the defaults.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	return cfg, nil
}

// NewViper returns a viper instance reading environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads the configuration file at path.
func ReadFile(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "error reading config file %s", path)
	}
	return Load(v)
}

// LoadFields reads only the field settings from the file at path.
func LoadFields(path string) ([]casefilter.FieldConfig, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return cfg.Fields, nil
}

// Validate checks that every field can be populated by factory.
func (c *Config) Validate(factory *condition.Factory) error {
	if empty, ok := lo.Find(c.Fields, func(f casefilter.FieldConfig) bool {
		return f.ID == ""
	}); ok {
		return errors.Errorf("field %q has no id", empty.DisplayName)
	}
	dups := lo.FindDuplicatesBy(c.Fields, func(f casefilter.FieldConfig) string {
		return f.ID
	})
	if len(dups) > 0 {
		return errors.Errorf("duplicated field id %q", dups[0].ID)
	}
	for _, fc := range c.Fields {
		if len(fc.AcceptableConditions) == 0 {
			return errors.Errorf("field %s has no acceptable conditions", fc.ID)
		}
		if err := casefilter.NewFilterField(fc).CreateConditions(factory); err != nil {
			return err
		}
	}
	return nil
}
