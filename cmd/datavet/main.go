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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/datavet/datavet-go"
	"github.com/datavet/datavet-go/batchio"
	"github.com/datavet/datavet-go/config"
	"github.com/datavet/datavet-go/suitestore"
)

const usage = `datavet.

Usage:
  datavet validate [options] SUITE DATA
  datavet describe [options] SUITE
  datavet kinds [options]
  datavet -h | --help | --version

Commands:
  validate    Run every assertion in a suite against a data file.
  describe    Show the assertions in a suite.
  kinds       List the registered assertion kinds.

Arguments:
  SUITE          path to a suite yaml file, or the name of a suite
                 held in the configured suite store
  DATA           path or blob url of the data to validate

Options:
  -h --help          show this help message and exit
  --output TYPE      output type (json/text)
  --workers N        evaluate up to N assertions concurrently
  --detail LEVEL     result detail (BOOLEAN_ONLY/BASIC/SUMMARY/COMPLETE)
  --config TEXT      specify the path to the configuration file`

type cliConfig struct {
	Validate bool `docopt:"validate"`
	Describe bool `docopt:"describe"`
	Kinds    bool `docopt:"kinds"`

	Suite string `docopt:"SUITE"`
	Data  string `docopt:"DATA"`

	Output  string `docopt:"--output"`
	Workers int    `docopt:"--workers"`
	Detail  string `docopt:"--detail"`
	Config  string `docopt:"--config"`
}

func main() {
	ctx := context.Background()
	args, err := docopt.ParseArgs(usage, os.Args[1:], datavet.Version())
	if err != nil {
		log.Fatal(err)
	}

	cfg := cliConfig{}
	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	rawConf := config.LoadConfig(cfg.Config)
	fileCfg := config.Parse(rawConf)
	flagDetail := cfg.Detail
	mergeConf(fileCfg, &cfg)

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "text":
		output = textOutput{}
	case "json":
		output = jsonOutput{}
	default:
		log.Fatal("unimplemented output type")
	}

	switch {
	case cfg.Kinds:
		output.Kinds(datavet.DefaultRegistry().Kinds())
	case cfg.Describe:
		suite := loadSuite(ctx, cfg.Suite, rawConf, fileCfg.DefaultStore, output)
		output.Suite(suite)
	case cfg.Validate:
		suite := loadSuite(ctx, cfg.Suite, rawConf, fileCfg.DefaultStore, output)
		batch := loadBatch(ctx, cfg.Data, output)

		// A level from the config file is a default and keeps
		// per-assertion levels; the --detail flag replaces them.
		if cfg.Detail != "" {
			for _, ac := range suite.Configs() {
				if flagDetail == "" && ac.DetailLevel != "" {
					continue
				}
				ac.DetailLevel = cfg.Detail
				suite.Append(ac)
			}
		}

		eng := datavet.NewEngine(datavet.WithSuite(suite),
			datavet.WithSampleBound(fileCfg.SampleBound))
		res, err := eng.RunSuite(ctx, suite, batch.Data, datavet.WithWorkers(cfg.Workers))
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}

		output.Results(batch, res)
		if !res.Success {
			os.Exit(1)
		}
	}
}

func mergeConf(fileCfg config.Config, cfg *cliConfig) {
	if cfg.Output == "" {
		cfg.Output = fileCfg.Stores[fileCfg.DefaultStore].Output
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}
	if cfg.Detail == "" {
		cfg.Detail = fileCfg.DetailLevel
	}
	if cfg.Workers <= 0 {
		cfg.Workers = fileCfg.MaxWorkers
	}
}

// loadSuite reads the suite from a yaml file when one exists at path,
// and otherwise treats path as the name of a suite in the configured
// suite store.
func loadSuite(ctx context.Context, path string, rawConf []byte, storeName string, output Output) *datavet.Suite {
	if data, err := os.ReadFile(path); err == nil {
		suite, err := datavet.LoadSuite(data)
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}

		return suite
	}

	suite, err := loadStoredSuite(ctx, path, rawConf, storeName)
	if err != nil {
		output.Error(err)
		os.Exit(1)
	}

	return suite
}

func loadStoredSuite(ctx context.Context, name string, rawConf []byte, storeName string) (*datavet.Suite, error) {
	sc := config.ParseConfig(rawConf, storeName)
	if sc == nil {
		return nil, fmt.Errorf("no suite file %q and no %q store configured", name, storeName)
	}
	if sc.StoreType != "sql" {
		return nil, fmt.Errorf("unsupported store type %q", sc.StoreType)
	}

	st, err := suitestore.OpenSQLiteStore(storeName, sc.URI)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return st.LoadSuite(ctx, name)
}

// loadBatch accepts either a full blob url ("file://...") or a
// plain filesystem path.
func loadBatch(ctx context.Context, data string, output Output) *datavet.Batch {
	bucketURL, key := splitDataURL(data)
	batch, err := batchio.ReadBatch(ctx, bucketURL, key)
	if err != nil {
		output.Error(err)
		os.Exit(1)
	}

	return batch
}

func splitDataURL(data string) (bucketURL, key string) {
	if i := strings.Index(data, "://"); i >= 0 {
		slash := strings.LastIndex(data, "/")

		return data[:slash], data[slash+1:]
	}

	abs, err := filepath.Abs(data)
	if err != nil {
		abs = data
	}

	return "file://" + filepath.ToSlash(filepath.Dir(abs)), filepath.Base(abs)
}
