package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingAPIKey = errors.New("ALCHEMY_API_KEY is not set")

const placeholderAPIKey = "YOUR_API_KEY_HERE"

type Config struct {
	LogZapMode               string `mapstructure:"LOG_ZAP_MODE"`
	PrintConfigurationToLogs string `mapstructure:"PRINT_CONFIGURATION_TO_LOGS"`

	AlchemyApiKey   string `mapstructure:"ALCHEMY_API_KEY"`
	Chain           string `mapstructure:"CHAIN"`
	NftApiBaseUrl   string `mapstructure:"NFT_API_BASE_URL"`
	EthereumNodeUrl string `mapstructure:"ETHEREUM_NODE_URL"`

	RecentSalesLimit   int   `mapstructure:"RECENT_SALES_LIMIT"`
	MaxNftsToCheck     int   `mapstructure:"MAX_NFTS_TO_CHECK"`
	DetailLimitPerNft  int   `mapstructure:"DETAIL_LIMIT_PER_NFT"`
	QuickFlipWindowSec int64 `mapstructure:"QUICK_FLIP_WINDOW_SEC"`
	RequestTimeoutSec  int   `mapstructure:"REQUEST_TIMEOUT_SEC"`
	RequestDelayMs     int   `mapstructure:"REQUEST_DELAY_MS"`
	RetryCount         int   `mapstructure:"RETRY_COUNT"`
	RetryBaseDelayMs   int   `mapstructure:"RETRY_BASE_DELAY_MS"`

	BlockTimestampCache     string `mapstructure:"BLOCK_TIMESTAMP_CACHE"`
	BlockTimestampCachePath string `mapstructure:"BLOCK_TIMESTAMP_CACHE_PATH"`
	RedisUrl                string `mapstructure:"REDIS_URL"`

	RPCPort int `mapstructure:"RPC_PORT"`
}

var defaults = map[string]any{
	"CHAIN":                      "eth-mainnet",
	"RECENT_SALES_LIMIT":         400,
	"MAX_NFTS_TO_CHECK":          60,
	"DETAIL_LIMIT_PER_NFT":       200,
	"QUICK_FLIP_WINDOW_SEC":      48 * 3600,
	"REQUEST_TIMEOUT_SEC":        30,
	"REQUEST_DELAY_MS":           150,
	"RETRY_COUNT":                3,
	"RETRY_BASE_DELAY_MS":        500,
	"BLOCK_TIMESTAMP_CACHE":      "memory",
	"BLOCK_TIMESTAMP_CACHE_PATH": "./db/blocktimestamps",
	"REDIS_URL":                  "redis://localhost:6379/0",
}

var lock = &sync.Mutex{}
var config *Config

var Get = get

func get() Config {
	if config == nil {
		lock.Lock()
		defer lock.Unlock()
		if config == nil {
			c := loadConfig()
			config = &c
		}
	}
	return *config
}

// Validate checks the settings that must be present before any network
// activity starts.
func (c Config) Validate() error {
	if c.AlchemyApiKey == "" || c.AlchemyApiKey == placeholderAPIKey {
		return ErrMissingAPIKey
	}
	if c.Chain == "" {
		return errors.New("CHAIN is not set")
	}
	return nil
}

// NodeURL is the JSON-RPC endpoint, ETHEREUM_NODE_URL when set or the
// Alchemy endpoint for CHAIN otherwise.
func (c Config) NodeURL() string {
	if c.EthereumNodeUrl != "" {
		return c.EthereumNodeUrl
	}
	if c.AlchemyApiKey == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.g.alchemy.com/v2/%s", c.Chain, c.AlchemyApiKey)
}

// NftApiURL is the base of the NFT sales API, NFT_API_BASE_URL when set or
// the Alchemy NFT v3 endpoint for CHAIN otherwise.
func (c Config) NftApiURL() string {
	if c.NftApiBaseUrl != "" {
		return strings.TrimRight(c.NftApiBaseUrl, "/")
	}
	return fmt.Sprintf("https://%s.g.alchemy.com/nft/v3/%s", c.Chain, c.AlchemyApiKey)
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}

func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

func loadConfig() Config {
	viperAddConfigFile()
	viperAddDefaults()
	viperAddEnv()
	cfg := initializeCfg()
	debugConfig(cfg)
	return cfg
}

func viperAddConfigFile() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
}

func viperAddDefaults() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

func viperAddEnv() {
	viper.AutomaticEnv()
	// This makes sure that all envs are binded even if they are not represented in config file (https://github.com/spf13/viper/issues/584)
	fieldsOfConfig := reflect.TypeOf(Config{})
	for i := 0; i < fieldsOfConfig.NumField(); i++ {
		mapStructureVal := fieldsOfConfig.Field(i).Tag.Get("mapstructure")
		err := viper.BindEnv(mapStructureVal)
		if err != nil {
			panic(fmt.Sprintf("Error binding env val '%v': %v", mapStructureVal, err))
		}
	}
}

func initializeCfg() Config {
	var cfg Config
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Sprintf("fatal error reading config file: %v", err))
		}
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		panic(fmt.Sprintf("error unmarshaling config: %v", err))
	}
	return cfg
}

func debugConfig(cfg Config) {
	if cfg.PrintConfigurationToLogs == "true" {
		if cfg.AlchemyApiKey != "" {
			cfg.AlchemyApiKey = "[REDACTED]"
		}
		b, err := json.Marshal(cfg)
		var result string
		if err != nil {
			result = "[FAILED TO CONVERT CONF TO STRING]"
		} else {
			result = string(b)
		}
		log.Printf("[APP CONFIGURATION]: %v\n", result)
	}
}
