// Package config loads predictorctl's store-connection settings: viper for
// defaults/env/file loading, go-playground/validator for required-field
// checks. Library packages (store, matrix, similarity, recommend) never
// read configuration globally — this package exists only for the example
// CLI; the Store Adapter is passed explicitly to each Recommender.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	storeAddr     = "STORE_ADDR"
	storePassword = "STORE_PASSWORD"
	storeDB       = "STORE_DB"
)

// StoreConfig holds the connection settings for the backing store.
type StoreConfig struct {
	Addr     string `validate:"required"`
	Password string
	DB       int
}

var v = validator.New()

// Load reads STORE_ADDR/STORE_PASSWORD/STORE_DB from the environment (and
// an optional .env file in the working directory, if present), applying
// sensible defaults for fields left unset.
func Load() (StoreConfig, error) {
	viper.SetDefault(storeAddr, "localhost:6379")
	viper.SetDefault(storeDB, 0)
	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	_ = viper.ReadInConfig() // absent .env is not an error; env vars still apply

	cfg := StoreConfig{
		Addr:     viper.GetString(storeAddr),
		Password: viper.GetString(storePassword),
		DB:       viper.GetInt(storeDB),
	}

	if err := v.Struct(cfg); err != nil {
		return StoreConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
