// Package config loads the YAML settings the CLI harness needs to open a
// heap relation and its B+Tree index: where the data lives on disk, the
// file set base names, the buffer pool sizing for each file set, the
// indexed relation and attribute offset, and the log level.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// IndexConfig is the on-disk and in-memory shape of one relation's index,
// mirroring the fields OpenOrCreate needs.
type IndexConfig struct {
	RelationName   string `mapstructure:"relation_name"`
	AttrByteOffset int    `mapstructure:"attr_byte_offset"`
}

// BPTreeConfig is the top-level config document: a single YAML file read in
// full and unmarshaled into a mapstructure-tagged tree.
type BPTreeConfig struct {
	Storage struct {
		Dir            string `mapstructure:"dir"`
		HeapBase       string `mapstructure:"heap_base"`
		IndexBase      string `mapstructure:"index_base"`
		BufferCapacity int    `mapstructure:"buffer_capacity"`
		IndexBufferCap int    `mapstructure:"index_buffer_capacity"`
	} `mapstructure:"storage"`
	Index IndexConfig `mapstructure:"index"`
	Log   struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads and unmarshals the config file at path, applying the same
// defaults a freshly-initialized demo database would need.
func Load(path string) (*BPTreeConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.heap_base", "heap")
	v.SetDefault("storage.index_base", "idx")
	v.SetDefault("storage.buffer_capacity", 64)
	v.SetDefault("storage.index_buffer_capacity", 64)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg BPTreeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	return &cfg, nil
}
