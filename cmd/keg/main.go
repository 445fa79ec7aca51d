package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/sghaida/keg/emit"
	"github.com/sghaida/keg/graph"
	"github.com/sghaida/keg/internal/config"
	"github.com/sghaida/keg/internal/logging"
	"github.com/sghaida/keg/manifest"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `usage: keg <command> [flags]

commands:
  validate   check the provider graph declared by the manifests
  generate   validate, then write the registration file
  version    print the keg version

run "keg <command> -h" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	switch args[0] {
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "generate":
		return runGenerate(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "keg %s\n", version)
		return exitOK
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "keg: unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
}

// commonFlags are shared by validate and generate.
type commonFlags struct {
	config    string
	envFiles  stringList
	src       string
	strict    bool
	failFast  bool
	logLevel  string
	logFormat string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "path to keg.yaml (default ./keg.yaml when present)")
	fs.Var(&c.envFiles, "env", "additional .env file (repeatable)")
	fs.StringVar(&c.src, "src", "", "directory scanned for manifests")
	fs.BoolVar(&c.strict, "strict", true, "reject every ambiguous token")
	fs.BoolVar(&c.failFast, "fail-fast", false, "stop at the first violation")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", "", "console or json")
}

// load layers the explicitly set flags over the file and environment
// configuration.
func (c *commonFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(c.config, c.envFiles...)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "src":
			cfg.SrcDir = c.src
		case "strict":
			cfg.Strict = c.strict
		case "fail-fast":
			cfg.FailFast = c.failFast
		case "log-level":
			cfg.Log.Level = c.logLevel
		case "log-format":
			cfg.Log.Format = c.logFormat
		}
	})
	return cfg, nil
}

type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parse handles -h and flag errors, returning ok=false with the exit code
// when the command should stop.
func parse(fs *flag.FlagSet, args []string) (int, bool) {
	err := fs.Parse(args)
	switch {
	case err == nil:
		if fs.NArg() > 0 {
			fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
			return exitUsage, false
		}
		return exitOK, true
	case errors.Is(err, flag.ErrHelp):
		return exitOK, false
	default:
		return exitUsage, false
	}
}

// session is the loaded configuration and validated graph shared by the
// commands.
type session struct {
	cfg   *config.Config
	log   *zap.Logger
	file  *manifest.File
	graph *graph.Graph
}

func open(common *commonFlags, fs *flag.FlagSet, stderr io.Writer) (*session, error) {
	cfg, err := common.load(fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(&cfg.Log, stderr)
	if err != nil {
		return nil, err
	}

	f, err := manifest.LoadDir(cfg.SrcDir, cfg.Ignore...)
	if err != nil {
		return nil, err
	}
	log.Debug("loaded manifests",
		zap.String("src", cfg.SrcDir),
		zap.Int("providers", len(f.Providers)),
	)

	opts := []graph.Option{graph.WithLogger(log)}
	if cfg.FailFast {
		opts = append(opts, graph.WithFailFast())
	}
	if !cfg.Strict {
		opts = append(opts, graph.WithAllowAmbiguous())
	}
	g, err := graph.Validate(f.Nodes(), opts...)
	if err != nil {
		return nil, err
	}
	for _, w := range g.Warnings() {
		fmt.Fprintf(stderr, "warning: %v\n", w)
	}
	return &session{cfg: cfg, log: log, file: f, graph: g}, nil
}

// report prints err, listing graph violations one per line.
func report(stderr io.Writer, err error) int {
	var gerr *graph.Error
	if errors.As(err, &gerr) {
		for _, v := range gerr.Violations {
			fmt.Fprintf(stderr, "error: %v\n", v)
		}
		fmt.Fprintf(stderr, "keg: %d violation(s)\n", len(gerr.Violations))
		return exitFailure
	}
	fmt.Fprintf(stderr, "keg: %v\n", err)
	return exitFailure
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keg validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	dump := fs.Bool("dump", false, "print the validated graph")

	if code, ok := parse(fs, args); !ok {
		return code
	}

	s, err := open(&common, fs, stderr)
	if err != nil {
		return report(stderr, err)
	}
	defer func() { _ = s.log.Sync() }()

	if *dump {
		dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		dumper.Fdump(stdout, s.graph.Nodes())
	}
	fmt.Fprintf(stdout, "ok: %d providers, %d tokens\n", len(s.graph.Nodes()), len(s.graph.Tokens()))
	return exitOK
}

func runGenerate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keg generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	out := fs.String("out", "", "output directory")
	file := fs.String("file", "", "output file name")
	pkg := fs.String("package", "", "package clause of the generated file (default: the manifests' package)")
	check := fs.Bool("check", false, "fail with a diff instead of writing when the file is out of date")

	if code, ok := parse(fs, args); !ok {
		return code
	}

	s, err := open(&common, fs, stderr)
	if err != nil {
		return report(stderr, err)
	}
	defer func() { _ = s.log.Sync() }()

	cfg := s.cfg
	if *out != "" {
		cfg.OutDir = *out
	}
	if *file != "" {
		cfg.OutFile = *file
	}
	if *pkg != "" {
		cfg.Package = *pkg
	}
	if err := cfg.Validate(); err != nil {
		return report(stderr, err)
	}

	name := cfg.Package
	if name == "" {
		name = s.file.Package
	}
	sum, err := s.file.Sum()
	if err != nil {
		return report(stderr, err)
	}
	src, err := emit.Render(s.graph, emit.Options{
		Package: name,
		Imports: s.file.Imports,
		Runtime: cfg.Runtime,
		Source:  filepath.ToSlash(filepath.Clean(cfg.SrcDir)),
		Sum:     sum,
	})
	if err != nil {
		return report(stderr, err)
	}

	path := cfg.OutPath()
	if *check {
		diff, err := emit.Stale(path, src)
		if err != nil {
			return report(stderr, err)
		}
		if diff != "" {
			fmt.Fprint(stdout, diff)
			fmt.Fprintf(stderr, "keg: %s is out of date; run keg generate\n", path)
			return exitFailure
		}
		fmt.Fprintf(stdout, "up to date: %s\n", path)
		return exitOK
	}

	if err := emit.WriteFile(path, src); err != nil {
		return report(stderr, err)
	}
	s.log.Info("generated registration file",
		zap.String("path", path),
		zap.Int("providers", len(s.graph.Nodes())),
	)
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return exitOK
}
