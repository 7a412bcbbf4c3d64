// Command fictc is a thin CLI shell around internal/pipeline.Transform. It
// reads a source file, runs it through the compiler core, and prints the
// lowered JavaScript plus any diagnostics; it has no reactive behavior of
// its own.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/fict/internal/config"
	"github.com/sunholo/fict/internal/diag"
	"github.com/sunholo/fict/internal/pipeline"
	"github.com/sunholo/fict/internal/schema"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		configPath  = flag.String("config", "", "Path to a fict.config.yaml options file")
		jsonFlag    = flag.Bool("json", false, "Emit warnings as schema-versioned JSON instead of text")
		outFlag     = flag.String("out", "", "Write the transformed code to this path instead of stdout")
		optimize    = flag.Bool("optimize", false, "Enable the optimizer")
		noDom       = flag.Bool("vdom", false, "Use VDOM jsx() lowering instead of fine-grained DOM")
	)

	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	opts, err := loadOptions(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
	if *optimize {
		opts.Optimize = true
	}
	if *noDom {
		opts.FineGrainedDom = false
	}

	command := flag.Arg(0)

	switch command {
	case "transform", "build", "compile":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: fictc transform <file.jsx>")
			os.Exit(1)
		}
		transformFile(flag.Arg(1), opts, *jsonFlag, *outFlag)

	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: fictc check <file.jsx>")
			os.Exit(1)
		}
		checkFile(flag.Arg(1), opts, *jsonFlag)

	case "repl":
		runREPL(opts)

	case "explain":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing diagnostic code\n", red("Error"))
			fmt.Println("Usage: fictc explain FICT-J002")
			os.Exit(1)
		}
		explainCode(flag.Arg(1))

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command '%s'\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("fictc %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
	fmt.Println("\nFict reactive-UI compiler")
}

func printHelp() {
	fmt.Println(bold("fictc - the Fict reactive-UI compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fictc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>   Transform a source file and print the lowered JS\n", cyan("transform"))
	fmt.Printf("  %s <file>      Run every analysis pass and report diagnostics, no emit\n", cyan("check"))
	fmt.Printf("  %s                Start an interactive REPL that transforms snippets\n", cyan("repl"))
	fmt.Printf("  %s <code>     Print the description and remediation hint for a diagnostic code\n", cyan("explain"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version        Print version information")
	fmt.Println("  --help           Show this help message")
	fmt.Println("  --config <path>  Load CompilerOptions from a fict.config.yaml file")
	fmt.Println("  --json           Emit warnings as schema-versioned JSON")
	fmt.Println("  --out <path>     Write transformed code to a file instead of stdout")
	fmt.Println("  --optimize       Enable the optimizer")
	fmt.Println("  --vdom           Use VDOM jsx() lowering instead of fine-grained DOM")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s   # compile to stdout\n", cyan("fictc transform Counter.jsx"))
	fmt.Printf("  %s           # analyze only\n", cyan("fictc check Counter.jsx"))
	fmt.Printf("  %s               # interactive snippet transforms\n", cyan("fictc repl"))
}

func loadOptions(path string) (config.Options, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func readSource(filename string) (pipeline.Source, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return pipeline.Source{}, err
	}
	return pipeline.Source{Code: string(content), Filename: filename}, nil
}

func transformFile(filename string, opts config.Options, asJSON bool, outPath string) {
	src, err := readSource(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read file '%s': %v\n", red("Error"), filename, err)
		os.Exit(1)
	}

	result, err := pipeline.Transform(src, opts)
	if err != nil {
		printTransformError(err, asJSON)
		os.Exit(1)
	}

	printWarnings(result.Warnings, asJSON)

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(result.Code), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot write '%s': %v\n", red("Error"), outPath, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s wrote %s\n", green("✓"), outPath)
		return
	}
	fmt.Println(result.Code)
}

func checkFile(filename string, opts config.Options, asJSON bool) {
	src, err := readSource(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read file '%s': %v\n", red("Error"), filename, err)
		os.Exit(1)
	}

	result, err := pipeline.Transform(src, opts)
	if err != nil {
		printTransformError(err, asJSON)
		os.Exit(1)
	}

	printWarnings(result.Warnings, asJSON)
	if !asJSON {
		fmt.Printf("%s no errors in %s\n", green("✓"), filename)
	}
}

func printTransformError(err error, asJSON bool) {
	if rep, ok := diag.AsReport(err); ok {
		if asJSON {
			data, jerr := schema.MarshalDeterministic(rep)
			if jerr == nil {
				formatted, _ := schema.FormatJSON(data)
				fmt.Println(string(formatted))
				return
			}
		}
		loc := ""
		if rep.Span != nil {
			loc = fmt.Sprintf(" (%s)", rep.Span.Start.String())
		}
		fmt.Fprintf(os.Stderr, "%s [%s]%s: %s\n", red("Error"), rep.Code, loc, rep.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
}

func printWarnings(warnings []config.Warning, asJSON bool) {
	if len(warnings) == 0 {
		return
	}
	if asJSON {
		data, err := schema.MarshalDeterministic(map[string]any{
			"schema":   schema.WarningsV1,
			"warnings": warnings,
		})
		if err == nil {
			formatted, _ := schema.FormatJSON(data)
			fmt.Fprintln(os.Stderr, string(formatted))
			return
		}
	}
	for _, w := range warnings {
		sev := yellow("warn")
		if w.Level == config.LevelError {
			sev = red("error")
		}
		fmt.Fprintf(os.Stderr, "%s %s:%d:%d [%s] %s\n", sev, dim("—"), w.Line, w.Column, w.Code, w.Message)
	}
}

func explainCode(code string) {
	info, ok := diag.GetInfo(code)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown diagnostic code %q\n", red("Error"), code)
		os.Exit(1)
	}
	fmt.Printf("%s  %s\n", bold(info.Code), info.Description)
	fmt.Printf("  phase:    %s\n", info.Phase)
	fmt.Printf("  category: %s\n", info.Category)
	if info.Fix != "" {
		fmt.Printf("  fix:      %s\n", info.Fix)
	}
}

func runREPL(opts config.Options) {
	fmt.Printf("%s %s - transform JSX/$state/$effect snippets\n", bold("fictc"), bold(Version))
	fmt.Println(dim("Type :help for help, :quit to exit"))
	fmt.Println()

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".fictc_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	line.SetCompleter(func(l string) (c []string) {
		if strings.HasPrefix(l, ":") {
			for _, cmd := range []string{":help", ":quit", ":json", ":optimize"} {
				if strings.HasPrefix(cmd, l) {
					c = append(c, cmd)
				}
			}
		}
		return
	})
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	asJSON := false
	for {
		input, err := line.Prompt("fict> ")
		if err == io.EOF {
			fmt.Println(green("\nGoodbye!"))
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			switch {
			case input == ":quit" || input == ":q":
				fmt.Println(green("Goodbye!"))
				return
			case input == ":help" || input == ":h":
				fmt.Println("REPL Commands:")
				fmt.Println("  :help, :h     Show this help")
				fmt.Println("  :quit, :q     Exit the REPL")
				fmt.Println("  :json         Toggle JSON warning output")
				fmt.Println("  :optimize     Toggle the optimizer")
			case input == ":json":
				asJSON = !asJSON
				fmt.Printf("json output: %v\n", asJSON)
			case input == ":optimize":
				opts.Optimize = !opts.Optimize
				fmt.Printf("optimize: %v\n", opts.Optimize)
			default:
				fmt.Printf("Unknown command: %s\n", input)
			}
			continue
		}

		result, err := pipeline.Transform(pipeline.Source{Code: input, Filename: "<repl>"}, opts)
		if err != nil {
			printTransformError(err, asJSON)
			continue
		}
		printWarnings(result.Warnings, asJSON)
		fmt.Println(result.Code)
	}
}
