package simulate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/isobench/internal/gtf"
)

const annotGTF = `#!genome-build TAIR10
chr1	Araport11	gene	1000	5000	.	+	.	gene_id "G1";
chr1	Araport11	transcript	1000	5000	.	+	.	gene_id "G1"; transcript_id "G1.1";
chr1	Araport11	exon	3000	5000	.	+	.	gene_id "G1"; transcript_id "G1.1";
chr1	Araport11	exon	1000	2000	.	+	.	gene_id "G1"; transcript_id "G1.1";
chr1	Araport11	CDS	1200	2000	.	+	0	gene_id "G1"; transcript_id "G1.1";
chr1	Araport11	transcript	1500	4000	.	+	.	gene_id "G1"; transcript_id "G1.2";
chr1	Araport11	exon	1500	2500	.	+	.	gene_id "G1"; transcript_id "G1.2";
chr1	Araport11	exon	3500	4000	.	+	.	gene_id "G1"; transcript_id "G1.2";
chr2	Araport11	gene	1000	2000	.	-	.	gene_id "G2";
chr2	Araport11	transcript	1000	2000	.	-	.	gene_id "G2"; transcript_id "G2.1";
chr2	Araport11	exon	1500	2000	.	-	.	gene_id "G2"; transcript_id "G2.1";
chr2	Araport11	exon	1000	1200	.	-	.	gene_id "G2"; transcript_id "G2.1";
chr3	Araport11	gene	100	150	.	+	.	gene_id "G3";
chr3	Araport11	transcript	100	150	.	+	.	gene_id "G3"; transcript_id "G3.1";
chr3	Araport11	exon	100	150	.	+	.	gene_id "G3"; transcript_id "G3.1";
`

func parseFeatures(t *testing.T, content string) []*gtf.Feature {
	t.Helper()
	r := gtf.NewReader(strings.NewReader(content))
	var all []*gtf.Feature
	for {
		f, err := r.Next()
		require.NoError(t, err)
		if f == nil {
			return all
		}
		all = append(all, f)
	}
}

func spans(features []*gtf.Feature) []string {
	var out []string
	for _, f := range features {
		out = append(out, fmt.Sprintf("%s:%d-%d", f.Type, f.Start, f.End))
	}
	return out
}

func TestShift(t *testing.T) {
	tests := []struct {
		name       string
		strand     string
		mode       Mode
		start, end int64
		wantStart  int64
		wantEnd    int64
	}{
		{"control", "+", ModeControl, 1000, 2000, 1000, 2000},
		{"5' shorter +", "+", ModeShorter5, 1000, 2000, 1100, 2000},
		{"3' shorter +", "+", ModeShorter3, 1000, 2000, 1000, 1900},
		{"5' longer +", "+", ModeLonger5, 1000, 2000, 900, 2000},
		{"3' longer +", "+", ModeLonger3, 1000, 2000, 1000, 2100},
		{"both shorter +", "+", ModeShorterBoth, 1000, 2000, 1100, 1900},
		{"both longer +", "+", ModeLongerBoth, 1000, 2000, 900, 2100},
		{"5' shorter -", "-", ModeShorter5, 1000, 2000, 1000, 1900},
		{"3' shorter -", "-", ModeShorter3, 1000, 2000, 1100, 2000},
		{"5' longer -", "-", ModeLonger5, 1000, 2000, 1000, 2100},
		{"3' longer -", "-", ModeLonger3, 1000, 2000, 900, 2000},
		{"rejected when empty", "+", ModeShorterBoth, 100, 150, 100, 150},
		{"rejected when zero length", "+", ModeShorterBoth, 100, 300, 100, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Shift(tt.start, tt.end, tt.strand, tt.mode, 100)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("6")
	require.NoError(t, err)
	assert.Equal(t, ModeLongerBoth, m)
	assert.Equal(t, "5' and 3' longer", m.Description())

	_, err = ParseMode("7")
	assert.Error(t, err)
	_, err = ParseMode("x")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	features := parseFeatures(t, annotGTF)
	d := NewDistorter(DefaultShift, 1)

	out, err := d.Apply(features, map[string]Mode{
		"G1.1": ModeShorter5,
		"G1.2": ModeLongerBoth,
		"G2.1": ModeShorter5,
		"G3.1": ModeShorterBoth,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"gene:1100-5000",
		"transcript:1100-5000",
		"exon:1100-2000",
		"exon:3000-5000",
		"transcript:1400-4100",
		"exon:1400-2500",
		"exon:3500-4100",
		"gene:1000-1900",
		"transcript:1000-1900",
		"exon:1000-1200",
		"exon:1500-1900",
		"gene:100-150",
		"transcript:100-150",
		"exon:100-150",
	}, spans(out))

	// Input features are not modified.
	assert.Equal(t, int64(1000), features[1].Start)
}

func TestApply_MissingMode(t *testing.T) {
	_, err := NewDistorter(DefaultShift, 1).Apply(parseFeatures(t, annotGTF), map[string]Mode{})
	assert.Error(t, err)
}

func TestTrimExons(t *testing.T) {
	exons := parseFeatures(t, "chr1\ts\texon\t2000\t2050\t.\t+\t.\ttranscript_id \"t\";\n"+
		"chr1\ts\texon\t1000\t1500\t.\t+\t.\ttranscript_id \"t\";\n")

	kept := trimExons(exons, span{1000, 1950})
	require.Len(t, kept, 1)
	assert.Equal(t, int64(1000), kept[0].Start)
	assert.Equal(t, int64(1950), kept[0].End)

	// No exon overlaps: the last one by start is kept and stretched.
	kept = trimExons(exons, span{3000, 3100})
	require.Len(t, kept, 1)
	assert.Equal(t, int64(3000), kept[0].Start)
	assert.Equal(t, int64(3100), kept[0].End)

	assert.Nil(t, trimExons(nil, span{1, 2}))
}

func TestDrawModes_Deterministic(t *testing.T) {
	features := parseFeatures(t, annotGTF)

	a, err := NewDistorter(DefaultShift, 42).DrawModes(features)
	require.NoError(t, err)
	b, err := NewDistorter(DefaultShift, 42).DrawModes(features)
	require.NoError(t, err)

	require.Len(t, a, 4)
	assert.Equal(t, a, b)
	assert.Equal(t, "G1.1", a[0].TranscriptID)
	assert.Equal(t, "G3.1", a[3].TranscriptID)
	for _, m := range a {
		assert.GreaterOrEqual(t, int(m.Mode), 0)
		assert.Less(t, int(m.Mode), NumModes)
	}
}

func TestDistortFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "annot.gtf")
	out := filepath.Join(dir, "distorted.gtf")
	modesPath := filepath.Join(dir, "modes.tsv")
	require.NoError(t, os.WriteFile(in, []byte(annotGTF), 0644))

	require.NoError(t, NewDistorter(DefaultShift, 7).DistortFile(in, out, modesPath))

	modes, err := ReadModes(modesPath)
	require.NoError(t, err)
	assert.Len(t, modes, 4)

	features, err := gtf.ReadAll(out)
	require.NoError(t, err)
	assert.Len(t, features, 14)
	for _, f := range features {
		assert.NotEqual(t, "CDS", f.Type)
	}
}

func TestReadWriteModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.tsv")
	modes := Modes{{"G1.1", ModeShorter3}, {"G1.2", ModeControl}}
	require.NoError(t, WriteModes(path, modes))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "G1.1\t2\nG1.2\t0\n", string(data))

	got, err := ReadModes(path)
	require.NoError(t, err)
	assert.Equal(t, modes, got)
	assert.Equal(t, map[string]Mode{"G1.1": ModeShorter3, "G1.2": ModeControl}, got.Map())
}

func TestReadModes_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.tsv")
	require.NoError(t, os.WriteFile(path, []byte("G1.1\t2\nG1.2\t9\n"), 0644))
	_, err := ReadModes(path)
	assert.ErrorContains(t, err, ":2:")
}

func TestFixModes(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "real.gtf")
	bad := filepath.Join(dir, "bad.gtf")
	require.NoError(t, os.WriteFile(realPath, []byte(
		"c\ts\ttranscript\t100\t200\t.\t+\t.\ttranscript_id \"T1\";\n"+
			"c\ts\ttranscript\t300\t400\t.\t+\t.\ttranscript_id \"T2\";\n"+
			"c\ts\ttranscript\t500\t600\t.\t+\t.\ttranscript_id \"T3\";\n"+
			"c\ts\ttranscript\t700\t800\t.\t+\t.\ttranscript_id \"T4\";\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte(
		"c\ts\ttranscript\t100\t200\t.\t+\t.\ttranscript_id \"T1\";\n"+
			"c\ts\ttranscript\t300\t500\t.\t+\t.\ttranscript_id \"T2\";\n"+
			"c\ts\ttranscript\t700\t800\t.\t+\t.\ttranscript_id \"T4\";\n"), 0644))

	modes := Modes{{"T2", ModeLonger3}, {"T1", ModeShorterBoth}, {"T3", ModeLonger5}}
	fixed, changed, err := FixModes(realPath, bad, modes, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, changed)
	assert.Equal(t, Modes{
		{"T2", ModeLonger3},
		{"T1", ModeControl},
		{"T3", ModeLonger5},
		{"T4", ModeControl},
	}, fixed)
	assert.Equal(t, ModeShorterBoth, modes[1].Mode, "input modes are not modified")
}

func TestFixModesFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	realPath := write("real.gtf",
		"c\ts\tgene\t100\t800\t.\t+\t.\tgene_id \"G\";\n"+
			"c\ts\ttranscript\t100\t200\t.\t+\t.\ttranscript_id \"T1\";\n"+
			"c\ts\texon\t100\t200\t.\t+\t.\ttranscript_id \"T1\";\n"+
			"c\ts\ttranscript\t300\t400\t.\t+\t.\ttranscript_id \"T2\";\n"+
			"c\ts\ttranscript\t500\t600\t.\t+\t.\ttranscript_id \"T3\";\n"+
			"c\ts\ttranscript\t700\t800\t.\t+\t.\ttranscript_id \"T4\";\n")
	distortedPath := write("distorted.gtf",
		"c\ts\ttranscript\t100\t200\t.\t+\t.\ttranscript_id \"T1\";\n"+
			"c\ts\ttranscript\t300\t500\t.\t+\t.\ttranscript_id \"T2\";\n"+
			"c\ts\ttranscript\t600\t600\t.\t+\t.\ttranscript_id \"T3\";\n"+
			"c\ts\ttranscript\t700\t800\t.\t+\t.\ttranscript_id \"T4\";\n")
	modesPath := write("modes.tsv", "T2\t4\nT1\t5\nT3\t3\n")
	outPath := filepath.Join(dir, "modes.fixed.tsv")

	require.NoError(t, FixModesFile(realPath, distortedPath, modesPath, outPath, nil))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	// T1 is unchanged by the distortion and T4 had no mode.
	assert.Equal(t, "T2\t4\nT1\t0\nT3\t3\nT4\t0\n", string(data))

	err = FixModesFile(realPath, distortedPath, filepath.Join(dir, "missing.tsv"), outPath, nil)
	assert.Error(t, err)
}
