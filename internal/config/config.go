// config.go — HCL-based run configuration, grounded in burstgridgo's
// hclparse.NewParser + gohcl.DecodeBody loading idiom.
//
// A config file supplies defaults for everything Options also exposes as
// flags (see cmd/racesim); explicit flags always win over the file.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/Janji03/Racing-Choreographies-parser/runtime"
	"github.com/Janji03/Racing-Choreographies-parser/sim"
)

// initBlock mirrors one `init { process = "p" var = "x" value = ... }` block.
type initBlock struct {
	Process string   `hcl:"process"`
	Var     string   `hcl:"var"`
	Value   cty.Value `hcl:"value"`
}

// fileConfig is the decoded shape of one run.hcl file.
type fileConfig struct {
	Seed         *uint64     `hcl:"seed,optional"`
	RacePolicy   *string     `hcl:"race_policy,optional"`
	MaxSteps     *uint64     `hcl:"max_steps,optional"`
	MaxCallDepth *uint64     `hcl:"max_call_depth,optional"`
	Trace        *bool       `hcl:"trace,optional"`
	Init         []initBlock `hcl:"init,block"`
}

// Config is the run configuration loaded from one HCL file, already
// translated into sim's own vocabulary.
type Config struct {
	Seed         *uint64
	RacePolicy   *sim.RacePolicy
	MaxSteps     *uint64
	MaxCallDepth *uint64
	Trace        *bool
	Init         []sim.InitBinding
}

// Load reads and decodes the HCL run configuration at path.
func Load(path string) (*Config, error) {
	p := hclparse.NewParser()
	file, diags := p.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %s", path, diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %s", path, diags.Error())
	}

	cfg := &Config{Seed: fc.Seed, MaxSteps: fc.MaxSteps, MaxCallDepth: fc.MaxCallDepth, Trace: fc.Trace}

	if fc.RacePolicy != nil {
		policy, err := parseRacePolicy(*fc.RacePolicy)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.RacePolicy = &policy
	}

	for _, ib := range fc.Init {
		v, err := ctyToValue(ib.Value)
		if err != nil {
			return nil, fmt.Errorf("config file %s: init %s.%s: %w", path, ib.Process, ib.Var, err)
		}
		cfg.Init = append(cfg.Init, sim.InitBinding{Process: ib.Process, Var: ib.Var, Value: v})
	}

	return cfg, nil
}

func parseRacePolicy(s string) (sim.RacePolicy, error) {
	switch s {
	case "left":
		return sim.Left, nil
	case "right":
		return sim.Right, nil
	case "random":
		return sim.Random, nil
	default:
		return 0, fmt.Errorf("unknown race_policy %q, want left|right|random", s)
	}
}

func ctyToValue(v cty.Value) (runtime.Value, error) {
	switch v.Type() {
	case cty.Bool:
		return runtime.Bool(v.True()), nil
	case cty.Number:
		n, _ := v.AsBigFloat().Int64()
		return runtime.Int(n), nil
	default:
		return runtime.Value{}, fmt.Errorf("init value must be a bool or a number, got %s", v.Type().FriendlyName())
	}
}

// ApplyTo returns a copy of opt with every non-nil field of c copied over
// it, whatever opt held for that field; c's Init bindings are appended after
// opt's. Callers decide overlay order (cmd/racesim applies the file first and
// explicit flags afterwards); this just copies.
func (c *Config) ApplyTo(opt sim.Options) sim.Options {
	if c == nil {
		return opt
	}
	if c.Seed != nil {
		opt.Seed = *c.Seed
	}
	if c.RacePolicy != nil {
		opt.RacePolicy = *c.RacePolicy
	}
	if c.MaxSteps != nil {
		opt.MaxSteps = *c.MaxSteps
	}
	if c.MaxCallDepth != nil {
		opt.MaxCallDepth = *c.MaxCallDepth
	}
	if c.Trace != nil {
		opt.Trace = *c.Trace
	}
	if len(c.Init) > 0 {
		opt.Init = append(opt.Init, c.Init...)
	}
	return opt
}
