package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"

	"github.com/hakangs/panoramix/analysis"
	"github.com/hakangs/panoramix/vm"
)

var (
	hexFlag = &cli.StringFlag{
		Name:  "hex",
		Usage: "contract bytecode as hex (with or without 0x prefix)",
	}
	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "path to file containing contract bytecode hex",
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "output file path. If empty, write to stdout",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "output format: json or cbor",
		Value: "json",
	}
	disasmFlag = &cli.BoolFlag{
		Name:  "disasm",
		Usage: "print the disassembly instead of exploring",
	}
	metricsFlag = &cli.BoolFlag{
		Name:  "metrics",
		Usage: "print the exploration counters to stderr when done",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "panoramix: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "panoramix",
		Usage: "symbolically execute EVM bytecode and print every path",
		Flags: append([]cli.Flag{
			hexFlag,
			fileFlag,
			outFlag,
			formatFlag,
			disasmFlag,
			metricsFlag,
			verbosityFlag,
		}, configFlags...),
		Action: explore,
		Commands: []*cli.Command{
			dumpConfigCommand,
		},
	}
}

var levels = []slog.Level{log.LevelCrit, log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug, log.LevelTrace}

func setupLogging(verbosity int) {
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity >= len(levels) {
		verbosity = len(levels) - 1
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, levels[verbosity], false)))
}

func explore(ctx *cli.Context) error {
	setupLogging(ctx.Int(verbosityFlag.Name))

	hexArg, fileArg := ctx.String(hexFlag.Name), ctx.String(fileFlag.Name)
	if hexArg == "" && fileArg == "" {
		return errors.New("one of --hex or --file is required")
	}
	code, err := loadBytecode(hexArg, fileArg)
	if err != nil {
		return err
	}
	if ctx.Bool(disasmFlag.Name) {
		jt, err := vm.LookupInstructionSet(ctx.String(forkFlag.Name))
		if err != nil {
			return err
		}
		return disassemble(ctx.App.Writer, code, &jt)
	}

	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	explorer, err := analysis.NewExplorer(cfg)
	if err != nil {
		return err
	}
	res, err := explorer.Explore(ctx.Context, code)
	if err != nil {
		return pkgerrors.Wrap(err, "exploration aborted")
	}
	log.Info("Explored bytecode", "size", len(code), "paths", res.NumPaths(), "failed", res.NumFail(), "steps", res.NumSteps())

	if ctx.Bool(metricsFlag.Name) {
		if err := printCounters(ctx.App.ErrWriter); err != nil {
			return err
		}
	}

	rep := analysis.Export(res, cfg.MaxExportDepth)
	var out []byte
	switch format := ctx.String(formatFlag.Name); format {
	case "json":
		out, err = rep.JSON()
	case "cbor":
		out, err = rep.CBOR()
	default:
		return fmt.Errorf("unknown format %q (use json or cbor)", format)
	}
	if err != nil {
		return pkgerrors.Wrap(err, "encode report")
	}
	if path := ctx.String(outFlag.Name); path != "" {
		return pkgerrors.Wrapf(os.WriteFile(path, out, 0o644), "write %s", path)
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

func printCounters(w io.Writer) error {
	counters := analysis.Counters()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "symexec/%s %d\n", name, counters[name]); err != nil {
			return err
		}
	}
	return nil
}

// disassemble prints one instruction per line. Valid jump destinations are
// marked and an empty line follows every instruction that ends a block.
func disassemble(w io.Writer, code []byte, jt *vm.JumpTable) error {
	dests := vm.ValidJumpDests(code)
	ins := vm.Disassemble(code)
	for i, in := range ins {
		mark := ""
		if in.Op == vm.JUMPDEST && dests.Has(in.PC) {
			mark = " <"
		}
		if _, err := fmt.Fprintf(w, "%v%s\n", in, mark); err != nil {
			return err
		}
		if op := jt.Lookup(byte(in.Op)); (op.Halts || op.Jumps) && i < len(ins)-1 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadBytecode(hexArg, fileArg string) ([]byte, error) {
	if hexArg != "" {
		return decodeHexString(hexArg)
	}
	// Read file and concatenate non-whitespace characters
	f, err := os.Open(fileArg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open bytecode file")
	}
	defer f.Close()
	var b strings.Builder
	rd := bufio.NewReader(f)
	for {
		line, err := rd.ReadString('\n')
		b.WriteString(line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "read %s", fileArg)
		}
	}
	return decodeHexString(b.String())
}

func decodeHexString(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	code, err := hexutil.Decode(s)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "decode bytecode")
	}
	return code, nil
}
