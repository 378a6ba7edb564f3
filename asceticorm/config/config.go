package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	criteria "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain"
	render "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/infrastructure"
	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
	scalars "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/infrastructure"
)

const (
	EnvPrefix    = "ASCETICORM"
	maxWalkDepth = 25
)

var configNames = []string{"asceticorm.yaml", "asceticorm.yml"}

// Settings are the values the persistence layer hands to query building and
// rendering.
type Settings struct {
	InPredicate InPredicateSettings `mapstructure:"in_predicate" json:"in_predicate"`
	Join        JoinSettings        `mapstructure:"join" json:"join"`
	Render      RenderSettings      `mapstructure:"render" json:"render"`
	QueryPath   QueryPathSettings   `mapstructure:"query_path" json:"query_path"`
}

type InPredicateSettings struct {
	// MaxPartitionSize of 0 keeps IN lists in one piece.
	MaxPartitionSize int `mapstructure:"max_partition_size" json:"max_partition_size"`
}

type JoinSettings struct {
	StrictSchema bool `mapstructure:"strict_schema" json:"strict_schema"`
}

type RenderSettings struct {
	// AliasPrefix empty derives the prefix from the root entity name.
	AliasPrefix   string `mapstructure:"alias_prefix" json:"alias_prefix"`
	LiteralPrefix string `mapstructure:"literal_prefix" json:"literal_prefix"`
}

type QueryPathSettings struct {
	CacheSize int `mapstructure:"cache_size" json:"cache_size"`
}

// LoadConfig reads the settings with precedence env > config file > defaults.
// It returns the path of the config file used, empty when none was found.
func LoadConfig(explicitPath string) (*Settings, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, path, errors.Wrap(err, "reading config file")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, path, errors.Wrap(err, "unmarshaling config")
	}
	if err := s.Validate(); err != nil {
		return nil, path, err
	}
	return &s, path, nil
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("in_predicate.max_partition_size", 0)
	v.SetDefault("join.strict_schema", false)
	v.SetDefault("render.alias_prefix", "")
	v.SetDefault("render.literal_prefix", render.DefaultLiteralPrefix)
	v.SetDefault("query_path.cache_size", querypath.DefaultCacheSize)
}

func (s *Settings) Validate() error {
	if s.InPredicate.MaxPartitionSize < 0 {
		return errors.Errorf("in_predicate.max_partition_size must not be negative, got %d", s.InPredicate.MaxPartitionSize)
	}
	if s.QueryPath.CacheSize < 0 {
		return errors.Errorf("query_path.cache_size must not be negative, got %d", s.QueryPath.CacheSize)
	}
	return nil
}

func (s *Settings) QueryOptions() []criteria.QueryOption {
	return []criteria.QueryOption{
		criteria.WithMaxInPartitionSize(s.InPredicate.MaxPartitionSize),
		criteria.WithStrictSchema(s.Join.StrictSchema),
	}
}

func (s *Settings) RenderOptions() []render.Option {
	var opts []render.Option
	if s.Render.AliasPrefix != "" {
		opts = append(opts, render.WithAliasPrefix(s.Render.AliasPrefix))
	}
	return append(opts, render.WithLiteralPrefix(s.Render.LiteralPrefix))
}

func (s *Settings) PlanFactoryOptions() []querypath.PlanFactoryOption {
	return []querypath.PlanFactoryOption{querypath.WithPlanCacheSize(s.QueryPath.CacheSize)}
}

func (s *Settings) ScalarOptions() []scalars.Option {
	return []scalars.Option{scalars.WithMaxPartitionSize(s.InPredicate.MaxPartitionSize)}
}

// Apply resizes the package query path compiler.
func (s *Settings) Apply() {
	querypath.SetCacheSize(s.QueryPath.CacheSize)
}

// findConfigFile validates an explicit path, otherwise walks up from the
// working directory looking for asceticorm.yaml or asceticorm.yml. The walk
// stops at a .git entry or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", errors.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "getting cwd")
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
