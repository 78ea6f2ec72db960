// Package cmd implements the `loam` CLI: a thin shell (spec.md §1, §6) in
// front of the specialize/check/phase/control/lower pipeline, grounded on
// the teacher's cmd.Execute (bootstrap/cmd/execute.go), adapted from Chai's
// build/mod/version subcommands down to loam's build/version.
package cmd

import (
	"os"

	"github.com/ComedicChimera/olive"

	"loam/common"
	"loam/report"
)

// Execute is the CLI entry point.
func Execute() {
	cli := olive.NewCLI("loam", "loam compiles mesh/field kernels into a task graph", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile a loam project", true)
	buildCmd.AddPrimaryArg("project-path", "the path to the project directory", true)

	cli.AddSubcommand("version", "print the loam version", false)

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.Fatal(err.Error())
		return
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		execBuildCommand(subResult, result.Arguments["loglevel"].(string))
	case "version":
		report.InitReporter(levelOf(result.Arguments["loglevel"].(string)))
		report.ReportInfo("Loam Version", common.LoamVersion)
	}
}

func execBuildCommand(result *olive.ArgParseResult, loglevel string) {
	report.InitReporter(levelOf(loglevel))

	projectPath, _ := result.PrimaryArg()

	c, err := NewCompiler(projectPath)
	if err != nil {
		report.Fatal("loading %s: %s", common.ConfigFileName, err.Error())
		return
	}

	bundle, err := c.Build()
	if err != nil {
		report.Fatal("build failed: %s", err.Error())
		return
	}

	report.ReportInfo("Build Finished", bundleSummary(bundle))
}

func levelOf(name string) int {
	switch name {
	case "silent":
		return report.LogLevelSilent
	case "error":
		return report.LogLevelError
	case "warn":
		return report.LogLevelWarn
	default:
		return report.LogLevelVerbose
	}
}
