package main

import (
	"crypto/ed25519"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/code-payments/code-config-program/pkg/solana/configprogram"
	"github.com/code-payments/code-config-program/pkg/solana/runtime"
)

const envPrefix = "CONFIGCTL"

// Config is the CLI configuration, merged from flags, CONFIGCTL_* environment
// variables and an optional config file, in that order of precedence
type Config struct {
	ConfigFile string `mapstructure:"config_file"`

	LogLevel   string `mapstructure:"log_level"`
	JSONOutput bool   `mapstructure:"json_output"`

	Program string `mapstructure:"program"`
	Schema  string `mapstructure:"schema"`

	RPCEndpoint string `mapstructure:"rpc_endpoint"`

	Ledger   string   `mapstructure:"ledger"`
	Postgres pgConfig `mapstructure:"postgres"`

	AppName             string        `mapstructure:"app_name"`
	NewRelicLicenseKey  string        `mapstructure:"new_relic_license_key"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

type pgConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DbName   string `mapstructure:"db_name"`
}

var defaultConfig = Config{
	LogLevel: "warn",

	Program: base58.Encode(configprogram.PROGRAM_ID),
	Schema:  configprogram.SchemaDefault.Name,

	RPCEndpoint: "https://api.mainnet-beta.solana.com",

	Ledger: "postgres",
	Postgres: pgConfig{
		User:   "postgres",
		Host:   "localhost",
		Port:   5432,
		DbName: "configprogram",
	},

	AppName:             "configctl",
	ShutdownGracePeriod: 5 * time.Second,
}

func init() {
	viper.SetEnvPrefix(envPrefix)

	_ = viper.BindEnv("config_file", envPrefix+"_CONFIG")
	_ = viper.BindEnv("log_level", envPrefix+"_LOG_LEVEL")
	_ = viper.BindEnv("json_output", envPrefix+"_JSON")

	_ = viper.BindEnv("program", envPrefix+"_PROGRAM")
	_ = viper.BindEnv("schema", envPrefix+"_SCHEMA")

	_ = viper.BindEnv("rpc_endpoint", envPrefix+"_RPC_ENDPOINT")

	_ = viper.BindEnv("ledger", envPrefix+"_LEDGER")
	_ = viper.BindEnv("postgres.user", envPrefix+"_POSTGRES_USER")
	_ = viper.BindEnv("postgres.password", envPrefix+"_POSTGRES_PASSWORD")
	_ = viper.BindEnv("postgres.host", envPrefix+"_POSTGRES_HOST")
	_ = viper.BindEnv("postgres.port", envPrefix+"_POSTGRES_PORT")
	_ = viper.BindEnv("postgres.db_name", envPrefix+"_POSTGRES_DB_NAME")

	_ = viper.BindEnv(runtime.RentLamportsPerByteYearConfigKey, runtime.RentLamportsPerByteYearConfigEnvName)
	_ = viper.BindEnv(runtime.RentExemptionThresholdConfigKey, runtime.RentExemptionThresholdConfigEnvName)
	_ = viper.BindEnv(runtime.RentBurnPercentConfigKey, runtime.RentBurnPercentConfigEnvName)
	_ = viper.BindEnv(runtime.EnforceRentExemptionConfigKey, runtime.EnforceRentExemptionConfigEnvName)
	_ = viper.BindEnv(runtime.CommitTimeoutConfigKey, runtime.CommitTimeoutConfigEnvName)

	_ = viper.BindEnv("app_name", envPrefix+"_APP_NAME")
	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
	_ = viper.BindEnv("shutdown_grace_period", envPrefix+"_SHUTDOWN_GRACE_PERIOD")
}

func loadConfig() (Config, error) {
	// viper.ReadInConfig does not report a missing file that was explicitly
	// set, so an empty or missing path skips the file entirely
	if path := viper.GetString("config_file"); len(path) > 0 {
		if _, err := os.Stat(path); err != nil {
			return Config{}, errors.Wrapf(err, "error reading config file %s", path)
		}

		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "failed to load config")
		}
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func (c Config) programID() (ed25519.PublicKey, error) {
	return parseKey("program", c.Program)
}

func (c Config) schema() (configprogram.Schema, error) {
	return configprogram.SchemaByName(c.Schema)
}

func parseKey(name, value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		return nil, errors.Errorf("--%s is required", name)
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid --%s: expected %d bytes, got %d", name, ed25519.PublicKeySize, len(decoded))
	}
	return decoded, nil
}
