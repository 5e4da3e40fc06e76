package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/hakangs/panoramix/analysis"
	"github.com/hakangs/panoramix/vm"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	forkFlag = &cli.StringFlag{
		Name:  "fork",
		Usage: "instruction set (" + strings.Join(vm.Forks(), ", ") + ")",
	}
	maxPathsFlag = &cli.IntFlag{
		Name:  "max-paths",
		Usage: "maximum number of paths",
	}
	maxTraceFlag = &cli.IntFlag{
		Name:  "max-trace",
		Usage: "maximum number of trace entries per path",
	}
	maxStepsFlag = &cli.IntFlag{
		Name:  "max-steps",
		Usage: "maximum number of instructions per path",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "number of paths executed in parallel",
	}
	noFoldFlag = &cli.BoolFlag{
		Name:  "no-fold",
		Usage: "keep operations on literals as terms",
	}
	exportDepthFlag = &cli.IntFlag{
		Name:  "export-depth",
		Usage: "depth at which exported terms are truncated",
	}

	configFlags = []cli.Flag{
		configFileFlag,
		forkFlag,
		maxPathsFlag,
		maxTraceFlag,
		maxStepsFlag,
		workersFlag,
		noFoldFlag,
		exportDepthFlag,
	}
)

var dumpConfigCommand = &cli.Command{
	Name:   "dumpconfig",
	Usage:  "Show configuration values",
	Flags:  configFlags,
	Action: dumpConfig,
}

// loadConfig overlays the values of a TOML file on cfg. Unknown keys are
// rejected.
func loadConfig(file string, cfg *analysis.Config) error {
	md, err := toml.DecodeFile(file, cfg)
	if err != nil {
		return pkgerrors.Wrapf(err, "load config %s", file)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("config %s: unknown keys %s", file, strings.Join(keys, ", "))
	}
	return nil
}

// makeConfig starts from the defaults, then applies the config file and
// finally the flags that were set explicitly.
func makeConfig(ctx *cli.Context) (analysis.Config, error) {
	cfg := analysis.DefaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(forkFlag.Name) {
		cfg.Fork = ctx.String(forkFlag.Name)
	}
	if ctx.IsSet(maxPathsFlag.Name) {
		cfg.MaxPaths = ctx.Int(maxPathsFlag.Name)
	}
	if ctx.IsSet(maxTraceFlag.Name) {
		cfg.MaxTraceLength = ctx.Int(maxTraceFlag.Name)
	}
	if ctx.IsSet(maxStepsFlag.Name) {
		cfg.MaxSteps = ctx.Int(maxStepsFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.Bool(noFoldFlag.Name) {
		cfg.FoldConstants = false
	}
	if ctx.IsSet(exportDepthFlag.Name) {
		cfg.MaxExportDepth = ctx.Int(exportDepthFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, pkgerrors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	return toml.NewEncoder(ctx.App.Writer).Encode(cfg)
}
