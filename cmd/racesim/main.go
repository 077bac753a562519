// main.go — racesim CLI: a flat os.Args[1] subcommand switch plus the
// stdlib flag package per subcommand, the same shape as the teacher's
// cmd/msg/main.go.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
	"github.com/Janji03/Racing-Choreographies-parser/internal/config"
	"github.com/Janji03/Racing-Choreographies-parser/internal/diagnostics"
	"github.com/Janji03/Racing-Choreographies-parser/parser"
	"github.com/Janji03/Racing-Choreographies-parser/runtime"
	"github.com/Janji03/Racing-Choreographies-parser/sim"
	"github.com/Janji03/Racing-Choreographies-parser/validate"
)

const (
	appName     = "racesim"
	historyFile = ".racesim_history"
	promptMain  = "race> "
	promptCont  = "  ... "
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		os.Exit(cmdSimulate(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`racesim — Racing Choreographies simulator

Usage:
  %s simulate <file.rc> [flags]   Run a choreography once and report the outcome.
  %s repl                         Start an interactive REPL: load a file, run it, reload, repeat.

Run "%s simulate -h" for the simulate flags.
`, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// simulate
// -----------------------------------------------------------------------------

type initFlags []sim.InitBinding

func (f *initFlags) String() string { return "" }

func (f *initFlags) Set(s string) error {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return fmt.Errorf("expected P.VAR=VALUE, got %q", s)
	}
	lhs, rhs := s[:eq], s[eq+1:]
	dot := strings.IndexByte(lhs, '.')
	if dot < 0 {
		return fmt.Errorf("expected P.VAR=VALUE, got %q", s)
	}
	proc, v := lhs[:dot], lhs[dot+1:]

	val, err := parseInitValue(rhs)
	if err != nil {
		return fmt.Errorf("%q: %w", s, err)
	}
	*f = append(*f, sim.InitBinding{Process: proc, Var: v, Value: val})
	return nil
}

func parseInitValue(s string) (runtime.Value, error) {
	switch s {
	case "true":
		return runtime.Bool(true), nil
	case "false":
		return runtime.Bool(false), nil
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return runtime.Value{}, fmt.Errorf("expected an integer or true/false, got %q", s)
		}
		return runtime.Int(n), nil
	}
}

func cmdSimulate(args []string) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	seed := fs.Uint64("seed", 0, "PRNG seed for race policy \"random\"")
	racePolicy := fs.String("race", "random", "race policy: left|right|random")
	maxSteps := fs.Uint64("max-steps", sim.DefaultMaxSteps, "maximum interpreter steps before faulting")
	maxCallDepth := fs.Uint64("max-call-depth", sim.DefaultMaxCallDepth, "maximum call-stack depth before faulting")
	trace := fs.Bool("trace", true, "record a trace of every interpreter step")
	noTrace := fs.Bool("no-trace", false, "do not record a trace (same as -trace=false)")
	finalStore := fs.Bool("final-store", true, "print the final store")
	finalRaces := fs.Bool("final-races", true, "print the final race memory")
	asJSON := fs.Bool("json", false, "print the full result as JSON instead of plain text")
	quiet := fs.Bool("quiet", false, "suppress the run log (start, fault, finish) on stderr")
	configPath := fs.String("config", "", "optional HCL config file of defaults (flags override it)")
	var inits initFlags
	fs.Var(&inits, "init", "P.VAR=VALUE, repeatable, applied before main runs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s simulate <file.rc> [flags]\n", appName)
		return 2
	}
	file := fs.Arg(0)

	opt := sim.NewOptions()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		opt = cfg.ApplyTo(opt)
	}

	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if setFlags["seed"] {
		opt.Seed = *seed
	}
	if setFlags["race"] {
		policy, err := parseRacePolicyFlag(*racePolicy)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 2
		}
		opt.RacePolicy = policy
	}
	if setFlags["max-steps"] {
		opt.MaxSteps = *maxSteps
	}
	if setFlags["max-call-depth"] {
		opt.MaxCallDepth = *maxCallDepth
	}
	if setFlags["trace"] {
		opt.Trace = *trace
	}
	if setFlags["no-trace"] && *noTrace {
		opt.Trace = false
	}
	opt.Init = append(opt.Init, inits...)
	if !*quiet {
		logger, err := zap.NewDevelopment()
		if err == nil {
			opt.Logger = logger
		}
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	program, err := parser.Parse(file, string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Render(err, file, string(src)))
		return 1
	}

	if errs := validate.Validate(program); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.RenderValidationErrors(errs, file, string(src)))
		return 1
	}

	res := sim.NewSimulator().Run(program, opt)

	if *asJSON {
		enc, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		fmt.Println(string(enc))
	} else {
		printResult(res, string(src), *finalStore, *finalRaces)
	}

	if !res.Ok {
		return 1
	}
	return 0
}

func parseRacePolicyFlag(s string) (sim.RacePolicy, error) {
	switch s {
	case "left":
		return sim.Left, nil
	case "right":
		return sim.Right, nil
	case "random":
		return sim.Random, nil
	default:
		return 0, fmt.Errorf("--race: unknown policy %q, want left|right|random", s)
	}
}

func printResult(res sim.Result, src string, finalStore, finalRaces bool) {
	fmt.Printf("run %s: ", res.RunID)
	if res.Ok {
		fmt.Println(green("ok"))
	} else {
		fmt.Println(red("fault"))
		fmt.Println(diagnostics.RenderFault(res.Diagnostic, src))
	}

	if res.Trace.Len() > 0 {
		fmt.Println("trace:")
		for _, e := range res.Trace.Events() {
			fmt.Println("  " + e.String())
		}
	}

	if finalStore {
		fmt.Println("store:")
		for k, v := range res.Store.Snapshot() {
			fmt.Printf("  %s = %s\n", k, v.String())
		}
	}

	if finalRaces {
		fmt.Println("races:")
		for k, e := range res.Races.Snapshot() {
			fmt.Printf("  %s: winner=%s loser=%s discharged=%t\n", k, e.WinnerProc, e.LoserProc, e.Discharged)
		}
	}
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

// cmdRepl loads a choreography and runs it to completion against a fresh
// sim.Simulator on command, following the teacher's liner-based REPL shape
// (cmd/msg's cmdRepl) but driving the interpreter instead of evaluating
// source text directly. There is no incremental, one-statement-at-a-time
// mode: :run always re-executes the loaded program from the top.
func cmdRepl(_ []string) (ret int) {
	fmt.Println("racesim REPL — load a file with :load <path>, run it with :run, :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	var program *ast.Program
	var src string

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if err != nil {
			break
		}
		ln.AppendHistory(line)

		cmd := strings.TrimSpace(line)
		switch {
		case cmd == ":quit":
			return 0
		case cmd == "":
			continue
		case strings.HasPrefix(cmd, ":load "):
			path := strings.TrimSpace(strings.TrimPrefix(cmd, ":load "))
			raw, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, red(err.Error()))
				continue
			}
			p, err := parser.Parse(path, string(raw))
			if err != nil {
				fmt.Fprintln(os.Stderr, diagnostics.Render(err, path, string(raw)))
				continue
			}
			if errs := validate.Validate(p); len(errs) > 0 {
				fmt.Fprintln(os.Stderr, diagnostics.RenderValidationErrors(errs, path, string(raw)))
				continue
			}
			program, src = p, string(raw)
			fmt.Printf("loaded %s (%d procedures)\n", path, len(p.Procedures))
		case cmd == ":run":
			if program == nil {
				fmt.Fprintln(os.Stderr, "no program loaded; use :load <path> first")
				continue
			}
			res := sim.NewSimulator().Run(program, sim.NewOptions())
			printResult(res, src, true, true)
		default:
			fmt.Printf("unknown command %q. Try :load <path>, :run, :quit.\n", cmd)
		}
	}

	return 0
}
