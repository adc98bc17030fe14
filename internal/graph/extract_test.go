package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractStatutes_ArticleWithParagraph(t *testing.T) {
	refs := ExtractStatutes("Gemäss Art. 8 Abs. 2 BV ist dies klar.")
	if assert.Len(t, refs, 1) {
		assert.Equal(t, "BV", refs[0].LawCode)
		assert.Equal(t, "8", refs[0].Article)
		assert.Equal(t, "2", refs[0].Paragraph)
		assert.Equal(t, "ART.8.ABS.2.BV", refs[0].StatuteID)
	}
}

func TestExtractStatutes_ArticleWithoutParagraph(t *testing.T) {
	refs := ExtractStatutes("Art. 8 EMRK garantiert das Recht auf Privatsphäre.")
	if assert.Len(t, refs, 1) {
		assert.Equal(t, "EMRK", refs[0].LawCode)
		assert.Equal(t, "ART.8.EMRK", refs[0].StatuteID)
	}
}

func TestExtractStatutes_RejectsBlocklistedWords(t *testing.T) {
	refs := ExtractStatutes("Art. 8 der Bundesverfassung wird zitiert.")
	assert.Empty(t, refs)
}

func TestExtractStatutes_Deduplicates(t *testing.T) {
	refs := ExtractStatutes("Art. 8 EMRK. Später nochmals Art. 8 EMRK erwähnt.")
	assert.Len(t, refs, 1)
}

func TestExtractStatutes_EmptyText(t *testing.T) {
	assert.Empty(t, ExtractStatutes(""))
}

func TestExtractCitations_BGEReference(t *testing.T) {
	citations := ExtractCitations("Gemäss BGE 147 I 268 ist dies klar.")
	if assert.Len(t, citations, 1) {
		assert.Equal(t, "bge", citations[0].TargetType)
		assert.Equal(t, "BGE 147 I 268", citations[0].TargetRef)
	}
}

func TestExtractCitations_DocketReference(t *testing.T) {
	citations := ExtractCitations("Siehe 4A_291/2017 für Details.")
	if assert.Len(t, citations, 1) {
		assert.Equal(t, "docket", citations[0].TargetType)
		assert.Equal(t, "4A_291_2017", citations[0].TargetRef)
	}
}

func TestExtractCitations_BareBGEStyleRefDoesNotDoubleCount(t *testing.T) {
	citations := ExtractCitations("BGE 147 I 268")
	assert.Len(t, citations, 1)
}

func TestExtractCitations_Deduplicates(t *testing.T) {
	citations := ExtractCitations("Vgl. 4A_291/2017. Nochmals 4A_291/2017 zitiert.")
	assert.Len(t, citations, 1)
}

func TestExtractCitations_VBDocketFormat(t *testing.T) {
	citations := ExtractCitations("Vgl. VB.2018.00411.")
	if assert.Len(t, citations, 1) {
		assert.Equal(t, "VB_2018_00411", citations[0].TargetRef)
	}
}

func TestNormalizeDocketCitation_CollapsesPunctuation(t *testing.T) {
	assert.Equal(t, "ZB_2016_28", normalizeDocketCitation("ZB.2016.28"))
}
