package config

import (
	"bytes"
	_ "embed"
	"strings"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configBytes []byte

var (
	_config Config
	_viper  *viper.Viper
)

type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type MysqlConfig struct {
	Url             string `mapstructure:"url"`
	Prefix          string `mapstructure:"prefix"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	SlowThreshold   int    `mapstructure:"slow_threshold"`
}

type AppConfig struct {
	Name         string `mapstructure:"name"`
	Port         int    `mapstructure:"port"`
	RoutePrefix  string `mapstructure:"route_prefix"`
	CacheSeconds int    `mapstructure:"cache_seconds"`
}

type ChainConfig struct {
	RpcUrls         []string `mapstructure:"rpc_urls"`
	Permit2         string   `mapstructure:"permit2"`
	PollIntervalMs  int      `mapstructure:"poll_interval_ms"`
	ReceiptTimeoutS int      `mapstructure:"receipt_timeout_s"`
}

type WalletConfig struct {
	// PrivateKey is hex, with or without 0x. Empty means no wallet is injected.
	PrivateKey string `mapstructure:"private_key"`
}

type RecordStoreConfig struct {
	Kind    string `mapstructure:"kind"` // mysql | rest
	RestUrl string `mapstructure:"rest_url"`
}

type ReconcileConfig struct {
	IntervalS int `mapstructure:"interval_s"`
	Batch     int `mapstructure:"batch"`
}

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Log         LogConfig         `mapstructure:"log"`
	Mysql       MysqlConfig       `mapstructure:"mysql"`
	Chain       ChainConfig       `mapstructure:"chain"`
	Wallet      WalletConfig      `mapstructure:"wallet"`
	RecordStore RecordStoreConfig `mapstructure:"record_store"`
	Reconcile   ReconcileConfig   `mapstructure:"reconcile"`
}

func GetConfig() Config {
	return _config
}

func init() {
	conf := viper.New()
	conf.SetConfigType("yaml")
	conf.SetEnvPrefix("CLAIM")
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	if err := conf.ReadConfig(bytes.NewBuffer(configBytes)); err != nil {
		panic(err)
	}

	var _conf Config
	if err := conf.Unmarshal(&_conf); err != nil {
		panic(err)
	}

	_viper = conf
	_config = _conf
}

// Load merges an on-disk yaml file over the embedded defaults.
func Load(file string) error {
	if file == "" {
		return nil
	}

	_viper.SetConfigFile(file)
	if err := _viper.MergeInConfig(); err != nil {
		return err
	}

	var _conf Config
	if err := _viper.Unmarshal(&_conf); err != nil {
		return err
	}

	_config = _conf
	return nil
}
