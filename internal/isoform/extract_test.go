package isoform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/isobench/internal/gtf"
)

// Two genes: a forward transcript with three exons and a reverse gene with two
// transcripts whose exons are listed 5' to 3' (descending coordinates).
const refGTF = `#gtf-version 2.2
chr1	RefSeq	gene	100	1000	.	+	.	gene_id "G1";
chr1	RefSeq	transcript	100	1000	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	RefSeq	exon	100	200	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	RefSeq	exon	300	400	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	RefSeq	exon	500	1000	.	+	.	gene_id "G1"; transcript_id "G1.t1";
chr1	RefSeq	CDS	150	200	.	+	0	gene_id "G1"; transcript_id "G1.t1";
chr2	RefSeq	gene	2000	5000	.	-	.	gene_id "G2";
chr2	RefSeq	transcript	2000	5000	.	-	.	gene_id "G2"; transcript_id "G2.t1";
chr2	RefSeq	exon	4500	5000	.	-	.	gene_id "G2"; transcript_id "G2.t1";
chr2	RefSeq	exon	2000	3000	.	-	.	gene_id "G2"; transcript_id "G2.t1";
chr2	RefSeq	transcript	2500	4800	.	-	.	gene_id "G2"; transcript_id "G2.t2";
chr2	RefSeq	exon	2500	4800	.	-	.	gene_id "G2"; transcript_id "G2.t2";
NC_000932.1	RefSeq	transcript	1	90	.	+	.	gene_id "ATCG1"; transcript_id "ATCG1.t1";
NC_000932.1	RefSeq	exon	1	40	.	+	.	gene_id "ATCG1"; transcript_id "ATCG1.t1";
NC_000932.1	RefSeq	exon	60	90	.	+	.	gene_id "ATCG1"; transcript_id "ATCG1.t1";
`

func extractAll(t *testing.T, e *Extractor, content string) []*Isoform {
	t.Helper()
	var out []*Isoform
	err := e.Extract(gtf.NewReader(strings.NewReader(content)), func(iso *Isoform) error {
		out = append(out, iso)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestExtract_TranscriptIDs(t *testing.T) {
	e := NewExtractor(IDTranscript)
	isoforms := extractAll(t, e, refGTF)
	require.Len(t, isoforms, 4)

	assert.Equal(t, "chr1\t+\t100\t201-299;401-499\t1000\tG1.t1", isoforms[0].String())
	assert.Equal(t, "chr2\t-\t2000\t3001-4499\t5000\tG2.t1", isoforms[1].String())
	assert.Equal(t, "chr2\t-\t2500\t\t4800\tG2.t2", isoforms[2].String())
	assert.Equal(t, "NC_000932.1\t+\t1\t41-59\t90\tATCG1.t1", isoforms[3].String())
}

func TestExtract_ExcludeChromosomes(t *testing.T) {
	e := NewExtractor(IDTranscript)
	e.ExcludeChromosomes(OrganelleChromosomes...)
	isoforms := extractAll(t, e, refGTF)

	require.Len(t, isoforms, 3)
	for _, iso := range isoforms {
		assert.NotEqual(t, "NC_000932.1", iso.Chrom)
	}
}

func TestExtract_GeneCounter(t *testing.T) {
	e := NewExtractor(IDGeneCounter)
	isoforms := extractAll(t, e, refGTF)
	require.Len(t, isoforms, 4)

	ids := []string{}
	for _, iso := range isoforms {
		ids = append(ids, iso.ID())
	}
	assert.Equal(t, []string{"G1.1", "G2.1", "G2.2", "ATCG1.1"}, ids)
}

func TestExtract_NoID(t *testing.T) {
	e := NewExtractor(IDNone)
	isoforms := extractAll(t, e, refGTF)
	require.Len(t, isoforms, 4)
	assert.Empty(t, isoforms[0].Extra)
	assert.Equal(t, "chr1\t+\t100\t201-299;401-499\t1000", isoforms[0].String())
}

func TestExtract_DuplicateIntronsCollapsed(t *testing.T) {
	content := `chr1	IsoQuant	transcript	100	900	.	+	.	gene_id "g"; transcript_id "t";
chr1	IsoQuant	exon	100	200	.	+	.	gene_id "g"; transcript_id "t";
chr1	IsoQuant	exon	300	400	.	+	.	gene_id "g"; transcript_id "t";
chr1	IsoQuant	exon	300	400	.	+	.	gene_id "g"; transcript_id "t";
`
	isoforms := extractAll(t, NewExtractor(IDNone), content)
	require.Len(t, isoforms, 1)
	// The repeated exon yields intron 401-299 which sorts after 201-299.
	assert.Equal(t, Introns{{201, 299}, {401, 299}}, isoforms[0].Introns)
}

func TestExtract_OrphanExonIgnored(t *testing.T) {
	content := `chr1	src	exon	1	10	.	+	.	gene_id "g";
chr1	src	transcript	20	90	.	+	.	gene_id "g"; transcript_id "t";
chr1	src	exon	20	90	.	+	.	gene_id "g"; transcript_id "t";
`
	isoforms := extractAll(t, NewExtractor(IDNone), content)
	require.Len(t, isoforms, 1)
	assert.Empty(t, isoforms[0].Introns)
}

func TestExtract_Empty(t *testing.T) {
	isoforms := extractAll(t, NewExtractor(IDNone), "# nothing\n")
	assert.Empty(t, isoforms)
}

func TestExtract_MissingTranscriptID(t *testing.T) {
	content := "chr1\tsrc\ttranscript\t20\t90\t.\t+\t.\tgene_id \"g\";\n"
	err := NewExtractor(IDTranscript).Extract(gtf.NewReader(strings.NewReader(content)), func(*Isoform) error { return nil })
	assert.Error(t, err)
}

func TestParseIDMode(t *testing.T) {
	for _, s := range []string{"none", "transcript", "gene-counter"} {
		m, err := ParseIDMode(s)
		require.NoError(t, err)
		assert.Equal(t, IDMode(s), m)
	}
	_, err := ParseIDMode("talon")
	assert.Error(t, err)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	gtfPath := filepath.Join(dir, "ref.gtf")
	outPath := filepath.Join(dir, "ref.tsv")
	require.NoError(t, os.WriteFile(gtfPath, []byte(refGTF), 0644))

	n, err := NewExtractor(IDTranscript).ExtractFile(gtfPath, outPath)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "chr1\t+\t100\t201-299;401-499\t1000\tG1.t1\n"))
}
