// Package workflow chains the benchmark steps into a scipipe workflow in
// which every step runs the isobench binary.
package workflow

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	sp "github.com/scipipe/scipipe"
	spcomp "github.com/scipipe/scipipe/components"
)

// Config names the inputs of one benchmark run.
type Config struct {
	Binary        string // isobench executable
	GTF           string // reference annotation with gene lines
	TSSPeaks      string
	PAPeaks       string
	Reconstructed string // reconstructed transcripts in GTF
	Reference     string // reference isoforms with transcript IDs
	SimDir        string // simulated counts, one file per replicate
	Modes         string
	OutDir        string
	DB            string // optional DuckDB store
	Run           string // run label for the store
	MaxTasks      int
}

// Validate checks that every required input is set.
func (c Config) Validate() error {
	required := []struct{ name, value string }{
		{"binary", c.Binary},
		{"gtf", c.GTF},
		{"tss", c.TSSPeaks},
		{"pa", c.PAPeaks},
		{"reconstructed", c.Reconstructed},
		{"reference", c.Reference},
		{"sim-dir", c.SimDir},
		{"modes", c.Modes},
		{"out-dir", c.OutDir},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("workflow: missing %s", strings.Join(missing, ", "))
	}
	if c.MaxTasks < 0 {
		return errors.New("workflow: max tasks must not be negative")
	}
	return nil
}

// Input feeds a step port from a file or from an upstream step's output.
type Input struct {
	Port string
	Path string // set for file inputs
	From string // "step.port" for upstream outputs
}

// Output is a file written by a step.
type Output struct {
	Port string
	Path string
}

// Step is one command of the workflow, written with scipipe {i:port} and
// {o:port} placeholders.
type Step struct {
	Name    string
	Command string
	Inputs  []Input
	Outputs []Output
}

// Pipeline is the ordered list of benchmark steps.
type Pipeline struct {
	name     string
	binary   string
	simDir   string
	maxTasks int
	logFile  string
	steps    []Step
}

// abs makes literal paths absolute; scipipe runs commands in a temporary
// directory below the working directory.
func abs(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	p, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return p, nil
}

// New lays out the benchmark steps for cfg.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, p := range []*string{&cfg.GTF, &cfg.TSSPeaks, &cfg.PAPeaks, &cfg.Reconstructed,
		&cfg.Reference, &cfg.SimDir, &cfg.Modes, &cfg.OutDir, &cfg.DB} {
		resolved, err := abs(*p)
		if err != nil {
			return nil, err
		}
		*p = resolved
	}
	if strings.ContainsRune(cfg.Binary, filepath.Separator) {
		resolved, err := abs(cfg.Binary)
		if err != nil {
			return nil, err
		}
		cfg.Binary = resolved
	}
	if cfg.MaxTasks == 0 {
		cfg.MaxTasks = 1
	}

	base := strings.TrimSuffix(filepath.Base(cfg.Reconstructed), filepath.Ext(cfg.Reconstructed))
	out := func(name string) string {
		return filepath.Join(cfg.OutDir, base+"."+name+".tsv")
	}
	bin := shellQuote(cfg.Binary)

	compare := bin + " compare --ref {i:ref} --modes {i:modes} --sim-dir " + shellQuote(cfg.SimDir) +
		" --in {i:recon} --out {o:stats}"
	if cfg.DB != "" {
		compare += " --db " + shellQuote(cfg.DB)
		if cfg.Run != "" {
			compare += " --run " + shellQuote(cfg.Run)
		}
	}

	steps := []Step{
		{
			Name:    "gtf2iso",
			Command: bin + " gtf2iso --id-mode none --gtf {i:gtf} --out {o:iso}",
			Inputs:  []Input{{Port: "gtf", Path: cfg.Reconstructed}},
			Outputs: []Output{{Port: "iso", Path: out("iso")}},
		},
		{
			Name:    "assign_genes",
			Command: bin + " assign-genes --gtf {i:gtf} --in {i:iso} --out {o:assigned}",
			Inputs:  []Input{{Port: "gtf", Path: cfg.GTF}, {Port: "iso", From: "gtf2iso.iso"}},
			Outputs: []Output{{Port: "assigned", Path: out("assigned")}},
		},
		{
			Name:    "peak_widths",
			Command: bin + " peak-widths --gtf {i:gtf} --tss {i:tss} --pa {i:pa} --out {o:widths}",
			Inputs:  []Input{{Port: "gtf", Path: cfg.GTF}, {Port: "tss", Path: cfg.TSSPeaks}, {Port: "pa", Path: cfg.PAPeaks}},
			Outputs: []Output{{Port: "widths", Path: filepath.Join(cfg.OutDir, "peak_widths.tsv")}},
		},
		{
			Name:    "make_peaks",
			Command: bin + " make-peaks --widths {i:widths} --in {i:assigned} --out {o:peaks}",
			Inputs:  []Input{{Port: "widths", From: "peak_widths.widths"}, {Port: "assigned", From: "assign_genes.assigned"}},
			Outputs: []Output{{Port: "peaks", Path: out("peaks")}},
		},
		{
			Name:    "filter_ref",
			Command: bin + " filter-ref --widths {i:widths} --in {i:ref} --out {o:filtered}",
			Inputs:  []Input{{Port: "widths", From: "peak_widths.widths"}, {Port: "ref", Path: cfg.Reference}},
			Outputs: []Output{{Port: "filtered", Path: filepath.Join(cfg.OutDir, "reference.filtered.tsv")}},
		},
		{
			Name:    "compare",
			Command: compare,
			Inputs: []Input{
				{Port: "ref", From: "filter_ref.filtered"},
				{Port: "modes", Path: cfg.Modes},
				{Port: "recon", From: "make_peaks.peaks"},
			},
			Outputs: []Output{{Port: "stats", Path: out("stats")}},
		},
	}

	return &Pipeline{
		name:     "isobench",
		binary:   cfg.Binary,
		simDir:   cfg.SimDir,
		maxTasks: cfg.MaxTasks,
		logFile:  filepath.Join(cfg.OutDir, "log", "scipipe-isobench.log"),
		steps:    steps,
	}, nil
}

// Steps returns the steps in execution order.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

func (p *Pipeline) outputPath(ref string) (string, error) {
	stepName, port, ok := strings.Cut(ref, ".")
	if !ok {
		return "", fmt.Errorf("invalid step reference %q", ref)
	}
	for _, s := range p.steps {
		if s.Name != stepName {
			continue
		}
		for _, o := range s.Outputs {
			if o.Port == port {
				return o.Path, nil
			}
		}
	}
	return "", fmt.Errorf("no output %q", ref)
}

var placeholder = regexp.MustCompile(`\{([io]):([A-Za-z0-9_]+)\}`)

// Commands returns the shell command of every step with all placeholders
// replaced by file paths.
func (p *Pipeline) Commands() ([]string, error) {
	cmds := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		paths := make(map[string]string)
		for _, in := range s.Inputs {
			path := in.Path
			if in.From != "" {
				var err error
				if path, err = p.outputPath(in.From); err != nil {
					return nil, fmt.Errorf("step %s: %w", s.Name, err)
				}
			}
			paths["i:"+in.Port] = path
		}
		for _, o := range s.Outputs {
			paths["o:"+o.Port] = o.Path
		}

		var missing error
		cmd := placeholder.ReplaceAllStringFunc(s.Command, func(m string) string {
			sub := placeholder.FindStringSubmatch(m)
			path, ok := paths[sub[1]+":"+sub[2]]
			if !ok {
				missing = fmt.Errorf("step %s: unbound placeholder %s", s.Name, m)
				return m
			}
			return shellQuote(path)
		})
		if missing != nil {
			return nil, missing
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Workflow builds the scipipe workflow. File inputs enter through file
// sources; step outputs are wired to downstream ports.
func (p *Pipeline) Workflow() (*sp.Workflow, error) {
	wf := sp.NewWorkflowCustomLogFile(p.name, p.maxTasks, p.logFile)

	procs := make(map[string]*sp.Process, len(p.steps))
	for _, s := range p.steps {
		proc := wf.NewProc(s.Name, s.Command)
		for _, o := range s.Outputs {
			proc.SetOut(o.Port, o.Path)
		}
		for _, in := range s.Inputs {
			if in.From == "" {
				src := spcomp.NewFileSource(wf, s.Name+"_"+in.Port+"_source", in.Path)
				proc.In(in.Port).From(src.Out())
				continue
			}
			stepName, port, _ := strings.Cut(in.From, ".")
			upstream, ok := procs[stepName]
			if !ok {
				return nil, fmt.Errorf("step %s: %s must come before it", s.Name, stepName)
			}
			proc.In(in.Port).From(upstream.Out(port))
		}
		procs[s.Name] = proc
	}
	return wf, nil
}

// check verifies that the binary, the simulated counts directory and every
// file input exist.
func (p *Pipeline) check() error {
	for _, s := range p.steps {
		for _, in := range s.Inputs {
			if in.From != "" {
				continue
			}
			if _, err := os.Stat(in.Path); err != nil {
				return fmt.Errorf("step %s: input %s: %w", s.Name, in.Port, err)
			}
		}
	}
	if info, err := os.Stat(p.simDir); err != nil {
		return fmt.Errorf("simulated counts: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("simulated counts: %s is not a directory", p.simDir)
	}
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("isobench binary: %w", err)
	}
	return nil
}

// Run checks the inputs, then builds and runs the workflow.
//
// scipipe exits the process with status 1 when a step fails, so the returned
// error only covers problems found before the first step starts.
func (p *Pipeline) Run() error {
	if err := p.check(); err != nil {
		return err
	}
	wf, err := p.Workflow()
	if err != nil {
		return err
	}
	wf.Run()
	return nil
}

// shellQuote single-quotes s for sh when it holds characters outside a safe set.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("-_./:=+,@%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
