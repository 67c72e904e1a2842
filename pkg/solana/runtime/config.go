package runtime

import (
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/code-config-program/pkg/config"
	"github.com/code-payments/code-config-program/pkg/config/env"
	"github.com/code-payments/code-config-program/pkg/config/memory"
	"github.com/code-payments/code-config-program/pkg/config/viperconfig"
	"github.com/code-payments/code-config-program/pkg/config/wrapper"
	"github.com/code-payments/code-config-program/pkg/solana/system"
)

const (
	envConfigPrefix = "RUNTIME_"

	RentLamportsPerByteYearConfigEnvName = "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = system.DefaultLamportsPerByteYear

	RentExemptionThresholdConfigEnvName = "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = system.DefaultExemptionThreshold

	RentBurnPercentConfigEnvName = "RENT_BURN_PERCENT"
	defaultRentBurnPercent       = system.DefaultBurnPercent

	EnforceRentExemptionConfigEnvName = envConfigPrefix + "ENFORCE_RENT_EXEMPTION"
	defaultEnforceRentExemption       = true

	CommitTimeoutConfigEnvName = envConfigPrefix + "COMMIT_TIMEOUT"
	defaultCommitTimeout       = 5 * time.Second
)

// Keys read by WithViperConfigs
const (
	RentLamportsPerByteYearConfigKey = "rent.lamports_per_byte_year"
	RentExemptionThresholdConfigKey  = "rent.exemption_threshold"
	RentBurnPercentConfigKey         = "rent.burn_percent"
	EnforceRentExemptionConfigKey    = "runtime.enforce_rent_exemption"
	CommitTimeoutConfigKey           = "runtime.commit_timeout"
)

type conf struct {
	rentLamportsPerByteYear config.Uint64
	rentExemptionThreshold  config.Float64
	rentBurnPercent         config.Uint64
	enforceRentExemption    config.Bool
	commitTimeout           config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  env.NewFloat64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			rentBurnPercent:         env.NewUint64Config(RentBurnPercentConfigEnvName, defaultRentBurnPercent),
			enforceRentExemption:    env.NewBoolConfig(EnforceRentExemptionConfigEnvName, defaultEnforceRentExemption),
			commitTimeout:           env.NewDurationConfig(CommitTimeoutConfigEnvName, defaultCommitTimeout),
		}
	}
}

// WithViperConfigs returns configuration read from v on every use
func WithViperConfigs(v *viper.Viper) ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: viperconfig.NewUint64Config(v, RentLamportsPerByteYearConfigKey, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  viperconfig.NewFloat64Config(v, RentExemptionThresholdConfigKey, defaultRentExemptionThreshold),
			rentBurnPercent:         viperconfig.NewUint64Config(v, RentBurnPercentConfigKey, defaultRentBurnPercent),
			enforceRentExemption:    viperconfig.NewBoolConfig(v, EnforceRentExemptionConfigKey, defaultEnforceRentExemption),
			commitTimeout:           viperconfig.NewDurationConfig(v, CommitTimeoutConfigKey, defaultCommitTimeout),
		}
	}
}

// Overrides carries optional config sources, typically memory configs in
// tests. Nil fields fall back to the defaults.
type Overrides struct {
	RentLamportsPerByteYear config.Config
	RentExemptionThreshold  config.Config
	RentBurnPercent         config.Config
	EnforceRentExemption    config.Config
	CommitTimeout           config.Config
}

// WithOverrides returns configuration backed by the provided sources
func WithOverrides(o Overrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: wrapper.NewUint64Config(orUnset(o.RentLamportsPerByteYear), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  wrapper.NewFloat64Config(orUnset(o.RentExemptionThreshold), defaultRentExemptionThreshold),
			rentBurnPercent:         wrapper.NewUint64Config(orUnset(o.RentBurnPercent), defaultRentBurnPercent),
			enforceRentExemption:    wrapper.NewBoolConfig(orUnset(o.EnforceRentExemption), defaultEnforceRentExemption),
			commitTimeout:           wrapper.NewDurationConfig(orUnset(o.CommitTimeout), defaultCommitTimeout),
		}
	}
}

func orUnset(c config.Config) config.Config {
	if c == nil {
		return memory.NewConfig(nil)
	}
	return c
}
