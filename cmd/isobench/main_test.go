package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGTF = `chr1	FLIC	transcript	100	1000	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	FLIC	exon	100	200	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	FLIC	exon	300	400	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	FLIC	exon	500	1000	.	+	.	gene_id "G1"; transcript_id "G1.t1";
`

// isolate keeps the user's ~/.isobench.yaml and earlier viper state out of
// the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRun_ExitCodes(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"version"}, ExitSuccess},
		{"unknown command", []string{"frobnicate"}, ExitUsage},
		{"missing required flag", []string{"gtf2iso"}, ExitUsage},
		{"unknown flag", []string{"version", "--nope"}, ExitUsage},
		{"extra argument", []string{"version", "extra"}, ExitUsage},
		{"bad iso-stats mode", []string{"iso-stats", "--in", "x", "--out", "y", "--mode", "middle"}, ExitUsage},
		{"bad log level", []string{"version", "--log-level", "loud"}, ExitUsage},
		{"missing input", []string{"iso-stats", "--in", filepath.Join(dir, "missing.tsv"), "--out", filepath.Join(dir, "out.tsv")}, ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "isobench version dev (none) built unknown\n", out)
}

func TestGTF2IsoThenIsoStats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	gtfPath := filepath.Join(dir, "flic.gtf")
	isoPath := filepath.Join(dir, "flic.tsv")
	statsPath := filepath.Join(dir, "stats.tsv")
	require.NoError(t, os.WriteFile(gtfPath, []byte(testGTF), 0644))

	require.Equal(t, ExitSuccess, run([]string{"gtf2iso", "--gtf", gtfPath, "--out", isoPath}))
	data, err := os.ReadFile(isoPath)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t+\t100\t201-299;401-499\t1000\tG1.t1\n", string(data))

	require.Equal(t, ExitSuccess, run([]string{"iso-stats", "--in", isoPath, "--out", statsPath}))
	data, err = os.ReadFile(statsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "chr1\t+\tG1.t1\t2\t901\t99.0\t234.3\t703", lines[1])
}

func TestWorkflowPlan(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	out, err := execute(t, "workflow", "--plan", "--binary", "isobench",
		"--gtf", filepath.Join(dir, "genes.gtf"),
		"--tss", filepath.Join(dir, "tss.bed"),
		"--pa", filepath.Join(dir, "pa.bed"),
		"--reconstructed", filepath.Join(dir, "flic.gtf"),
		"--ref", filepath.Join(dir, "ref.tsv"),
		"--sim-dir", filepath.Join(dir, "sim"),
		"--modes", filepath.Join(dir, "modes.tsv"),
		"--out-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.Contains(t, out, "# gtf2iso\nisobench gtf2iso --id-mode none --gtf "+filepath.Join(dir, "flic.gtf"))
	assert.Contains(t, out, "# compare\nisobench compare --ref "+filepath.Join(dir, "out", "reference.filtered.tsv"))
	_, err = os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err), "plan must not create the output directory")
}

func TestConfigGet_Default(t *testing.T) {
	isolate(t)
	out, err := execute(t, "config", "get", "log.level")
	require.NoError(t, err)
	assert.Equal(t, "info\n", out)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func reportedFiles(t *testing.T, db, run string) []string {
	t.Helper()
	out, err := execute(t, "report", "--db", db, "--run", run)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	var files []string
	for _, line := range lines[1:] {
		files = append(files, strings.Split(line, "\t")[1])
	}
	return files
}

func TestCompare_ReplaceRun(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"ref.tsv":   "chr1\t+\t100\t200-300\t1000\tG1.1\n",
		"modes.tsv": "G1.1\t3\n",
	})
	writeFiles(t, filepath.Join(dir, "sim"), map[string]string{
		"rep1.tsv": "r1\tG1.1\t5\n",
		"rep2.tsv": "r1\tG1.1\t1\n",
	})
	writeFiles(t, filepath.Join(dir, "all"), map[string]string{
		"flic.tsv":     "chr1\t+\t90-110\t200-300\t990-1010\tG1\n",
		"isoquant.tsv": "chr1\t+\t1-5\t\t6-9\tG1\n",
	})
	writeFiles(t, filepath.Join(dir, "some"), map[string]string{
		"flic.tsv": "chr1\t+\t90-110\t200-300\t990-1010\tG1\n",
	})
	db := filepath.Join(dir, "bench.duckdb")

	compare := func(in string, extra ...string) int {
		args := []string{"compare",
			"--ref", filepath.Join(dir, "ref.tsv"),
			"--sim-dir", filepath.Join(dir, "sim"),
			"--modes", filepath.Join(dir, "modes.tsv"),
			"--in", filepath.Join(dir, in),
			"--out", filepath.Join(dir, "stats", in),
			"--db", db, "--run", "r1"}
		return run(append(args, extra...))
	}

	require.Equal(t, ExitSuccess, compare("all"))
	assert.Equal(t, []string{"flic.tsv", "isoquant.tsv"}, reportedFiles(t, db, "r1"))

	require.Equal(t, ExitSuccess, compare("some"))
	assert.Equal(t, []string{"flic.tsv", "isoquant.tsv"}, reportedFiles(t, db, "r1"), "results of other files are kept")

	require.Equal(t, ExitSuccess, compare("some", "--replace-run"))
	assert.Equal(t, []string{"flic.tsv"}, reportedFiles(t, db, "r1"))

	data, err := os.ReadFile(filepath.Join(dir, "stats", "some", "flic.tsv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "TP\t1\n")
}

func TestCompare_ReplaceRunNeedsDB(t *testing.T) {
	isolate(t)
	assert.Equal(t, ExitUsage, run([]string{"compare",
		"--ref", "ref.tsv", "--sim-dir", "sim", "--modes", "modes.tsv",
		"--in", "in", "--out", "out", "--replace-run"}))
}

func TestAssignGenes_InvalidFractions(t *testing.T) {
	isolate(t)
	assert.Equal(t, ExitUsage, run([]string{"assign-genes",
		"--gtf", "genes.gtf", "--in", "in.tsv", "--out", "out.tsv",
		"--min-fraction", "0.9", "--accept-fraction", "0.8"}))
}

func TestConfigKeys(t *testing.T) {
	isolate(t)
	out, err := execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "assign.min_fraction\t0.1\n")
	assert.Contains(t, out, "distort.seed\t1\n")
	assert.Contains(t, out, "log.level\tinfo\n")
	assert.Len(t, strings.Split(strings.TrimSuffix(out, "\n"), "\n"), len(configKeys))
}

func TestConfigSet(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")

	require.Equal(t, ExitSuccess, run([]string{"config", "set", "distort.seed", "7"}))
	data, err := os.ReadFile(filepath.Join(home, ".isobench.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "distort:\n    seed: 7\n", string(data), "defaults are not written")

	viper.Reset()
	out, err := execute(t, "config", "get", "distort.seed")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)

	viper.Reset()
	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Equal(t, "distort.seed: 7\n", out)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "distort.speed", "7"}},
		{"not an integer", []string{"config", "set", "distort.seed", "seven"}},
		{"not a fraction", []string{"config", "set", "assign.min_fraction", "high"}},
		{"bad log level", []string{"config", "set", "log.level", "loud"}},
		{"get unknown key", []string{"config", "get", "distort.speed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ExitUsage, run(tt.args))
		})
	}
}
