// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	cfgFile            = ".datavet-go.yaml"
	defaultMaxWorkers  = 5
	defaultSampleBound = 20
)

type Config struct {
	DefaultStore string                 `yaml:"default-store"`
	Stores       map[string]StoreConfig `yaml:"store"`
	DetailLevel  string                 `yaml:"detail-level"`
	SampleBound  int                    `yaml:"sample-bound"`
	MaxWorkers   int                    `yaml:"max-workers"`
}

// StoreConfig locates one named suite store.
type StoreConfig struct {
	StoreType string `yaml:"type"`
	URI       string `yaml:"uri"`
	Output    string `yaml:"output"`
}

// LoadConfig reads the config file at configPath. An empty path falls
// back to $DATAVET_HOME, then to the user's home directory.
func LoadConfig(configPath string) []byte {
	path := configPath
	if path == "" {
		if dir := os.Getenv("DATAVET_HOME"); dir != "" {
			path = filepath.Join(dir, cfgFile)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil
			}
			path = filepath.Join(homeDir, cfgFile)
		}
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return file
}

func ParseConfig(file []byte, storeName string) *StoreConfig {
	var config Config
	err := yaml.Unmarshal(file, &config)
	if err != nil {
		return nil
	}
	res, ok := config.Stores[storeName]
	if !ok {
		return nil
	}

	return &res
}

// Parse decodes a full yaml config document and fills in defaults for
// every setting the document leaves out. A nil or malformed document
// yields the defaults alone.
func Parse(file []byte) Config {
	var cfg Config
	_ = yaml.Unmarshal(file, &cfg)

	if cfg.DefaultStore == "" {
		cfg.DefaultStore = "default"
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.SampleBound <= 0 {
		cfg.SampleBound = defaultSampleBound
	}

	return cfg
}

func fromConfigFiles() Config {
	return Parse(LoadConfig(""))
}

var EnvConfig = fromConfigFiles()
