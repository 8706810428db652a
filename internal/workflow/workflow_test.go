package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) Config {
	return Config{
		Binary:        "isobench",
		GTF:           filepath.Join(dir, "genes.gtf"),
		TSSPeaks:      filepath.Join(dir, "tss.bed"),
		PAPeaks:       filepath.Join(dir, "pa.bed"),
		Reconstructed: filepath.Join(dir, "flic.gtf"),
		Reference:     filepath.Join(dir, "ref.tsv"),
		SimDir:        filepath.Join(dir, "sim"),
		Modes:         filepath.Join(dir, "modes.tsv"),
		OutDir:        filepath.Join(dir, "out"),
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig("/data")
	assert.NoError(t, cfg.Validate())

	cfg.GTF = ""
	cfg.Modes = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gtf, modes")

	cfg = testConfig("/data")
	cfg.MaxTasks = -1
	assert.Error(t, cfg.Validate())
}

func TestPipeline_Commands(t *testing.T) {
	p, err := New(testConfig("/data"))
	require.NoError(t, err)

	var names []string
	for _, s := range p.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"gtf2iso", "assign_genes", "peak_widths", "make_peaks", "filter_ref", "compare"}, names)

	cmds, err := p.Commands()
	require.NoError(t, err)
	require.Len(t, cmds, 6)

	assert.Equal(t, "isobench gtf2iso --id-mode none --gtf /data/flic.gtf --out /data/out/flic.iso.tsv", cmds[0])
	assert.Equal(t, "isobench assign-genes --gtf /data/genes.gtf --in /data/out/flic.iso.tsv --out /data/out/flic.assigned.tsv", cmds[1])
	assert.Equal(t, "isobench peak-widths --gtf /data/genes.gtf --tss /data/tss.bed --pa /data/pa.bed --out /data/out/peak_widths.tsv", cmds[2])
	assert.Equal(t, "isobench make-peaks --widths /data/out/peak_widths.tsv --in /data/out/flic.assigned.tsv --out /data/out/flic.peaks.tsv", cmds[3])
	assert.Equal(t, "isobench filter-ref --widths /data/out/peak_widths.tsv --in /data/ref.tsv --out /data/out/reference.filtered.tsv", cmds[4])
	assert.Equal(t, "isobench compare --ref /data/out/reference.filtered.tsv --modes /data/modes.tsv --sim-dir /data/sim"+
		" --in /data/out/flic.peaks.tsv --out /data/out/flic.stats.tsv", cmds[5])
}

func TestPipeline_CompareStore(t *testing.T) {
	cfg := testConfig("/data")
	cfg.DB = "/data/bench.duckdb"
	cfg.Run = "run 1"

	p, err := New(cfg)
	require.NoError(t, err)
	cmds, err := p.Commands()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(cmds[5], " --db /data/bench.duckdb --run 'run 1'"), cmds[5])
}

func TestNew_ResolvesRelativePaths(t *testing.T) {
	cfg := testConfig("data")
	cfg.Binary = "./bin/isobench"

	p, err := New(cfg)
	require.NoError(t, err)

	cmds, err := p.Commands()
	require.NoError(t, err)
	for _, cmd := range cmds {
		fields := strings.Fields(cmd)
		assert.True(t, filepath.IsAbs(fields[0]), fields[0])
		for i, f := range fields {
			if strings.HasPrefix(f, "--") && i+1 < len(fields) && strings.Contains(fields[i+1], "data") {
				assert.True(t, filepath.IsAbs(fields[i+1]), fields[i+1])
			}
		}
	}
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/a/b-c_d.tsv", shellQuote("/a/b-c_d.tsv"))
	assert.Equal(t, "'a b'", shellQuote("a b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}

func TestPipeline_Workflow(t *testing.T) {
	p, err := New(testConfig(t.TempDir()))
	require.NoError(t, err)

	wf, err := p.Workflow()
	require.NoError(t, err)
	procs := wf.Procs()
	for _, s := range p.Steps() {
		assert.Contains(t, procs, s.Name)
	}
}

func TestPipeline_RunChecksInputs(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	p, err := New(cfg)
	require.NoError(t, err)
	err = p.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step gtf2iso: input gtf")

	for _, path := range []string{cfg.GTF, cfg.TSSPeaks, cfg.PAPeaks, cfg.Reconstructed, cfg.Reference, cfg.Modes} {
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
	err = p.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated counts")

	require.NoError(t, os.Mkdir(cfg.SimDir, 0755))
	cfg.Binary = filepath.Join(dir, "no-such-isobench")
	p, err = New(cfg)
	require.NoError(t, err)
	err = p.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "isobench binary")

	_, err = os.Stat(cfg.OutDir)
	assert.True(t, os.IsNotExist(err), "nothing runs when the check fails")
}
