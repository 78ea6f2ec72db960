package cmd

import (
	"loam/ast"
	"loam/check"
	"loam/config"
	"loam/control"
	"loam/env"
	"loam/lower"
	"loam/phase"
	"loam/relation"
	"loam/report"
	"loam/specialize"
	"loam/task"
	"loam/types"
)

// Compiler drives one build: it owns the resolved configuration and the
// lowering caches a run's kernel specializations share, grounded on the
// teacher's cmd.Compiler (bootstrap/cmd/compiler.go).
type Compiler struct {
	cfg    *config.Config
	caches *lower.Caches
}

// NewCompiler loads projectPath's loam.toml (or the defaults, if absent).
func NewCompiler(projectPath string) (*Compiler, error) {
	cfg, err := config.Load(projectPath)
	if err != nil {
		return nil, err
	}
	return &Compiler{cfg: cfg, caches: lower.NewCaches(cfg.CacheSize)}, nil
}

// Build runs the pipeline this exercise's CLI is thin in front of: record a
// control program against a host environment, specialize and check every
// kernel/helper it launches, phase-analyze each, and lower the whole thing
// into a task.Bundle. There is no embedded scripting host in this port (the
// corpus carries no Lua/scripting dependency to bind to spec.md's "Lua-host
// environment", see DESIGN.md); Build instead records the one illustrative
// program below, which exercises every stage a real host's recorded calls
// would, and is where a textual or embedded frontend would plug in.
func (c *Compiler) Build() (*task.Bundle, error) {
	backend := lower.CPU
	if c.cfg.Backend != "cpu" {
		backend = lower.Backend(c.cfg.Backend)
	}

	cells, _, _ := relation.NewGrid("grid_", []uint64{8, 8}, c.cfg.BoundaryDepth)
	temperature := cells.NewField("temperature", types.F64)
	e := env.Prelude().BindRelation("grid_cells", cells)

	fn, err := buildResetKernel(e, cells)
	if err != nil {
		return nil, err
	}

	interior, ok := cells.Subsets["interior"]
	if !ok {
		return nil, report.MalformedProgram(nil, "grid relation %q has no interior subset", cells.Name)
	}

	res, err := phase.Analyze(fn)
	if err != nil {
		return nil, err
	}

	r := control.New()
	r.NewRelation(cells)
	r.NewField(temperature)
	r.NewFunction(fn)
	r.LoadField(temperature, 0.0)
	r.ForEach(fn, cells, interior)
	prog, err := r.Program()
	if err != nil {
		return nil, err
	}

	bundle, err := lower.LowerProgram(c.caches, prog, r.Decls(), lower.PhaseResults{fn: res}, backend)
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// buildResetKernel specializes and checks a trivial kernel that writes 1.0
// into v.temperature for every cell in its launch domain.
func buildResetKernel(e *env.Environment, cells *relation.Relation) (*ast.FuncDef, error) {
	write := ast.NewAssign(ast.NewFieldAccess(ast.NewIdent("v"), "temperature"), ast.NewNumberLit(1))
	fn := ast.NewFuncDef("reset_temperature", true, []ast.Param{{Name: "v"}}, "", ast.NewBlock(write))

	s := specialize.New(e, "v", cells)
	if err := s.Specialize(fn); err != nil {
		return nil, err
	}
	if err := check.Check(fn, e); err != nil {
		return nil, err
	}
	return fn, nil
}
