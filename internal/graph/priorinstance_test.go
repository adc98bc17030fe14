package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPriorInstance_German(t *testing.T) {
	text := "Gegenstand\n" +
		"Nichtanhandnahme; Gegenstandslosigkeit,\n" +
		"Beschwerde gegen den Entscheid des Obergerichts des Kantons Aargau, " +
		"Beschwerdekammer in Strafsachen, vom 13. November 2025 (SBK.2025.285).\n" +
		"Erwägungen:\n"
	assert.Equal(t, []string{"SBK_2025_285"}, ExtractPriorInstance(text))
}

func TestExtractPriorInstance_French(t *testing.T) {
	text := "Objet\n" +
		"Aide sociale (condition de recevabilité),\n" +
		"recours contre l'arrêt de la Cour de justice de la République " +
		"et canton de Genève du 6 août 2024 (A/1168/2024 AIDSO - ATA/917/2024).\n" +
		"Considérant en fait et en droit:\n"
	result := ExtractPriorInstance(text)
	assert.Contains(t, result, "A_1168_2024")
	assert.Contains(t, result, "ATA_917_2024")
}

func TestExtractPriorInstance_Italian(t *testing.T) {
	text := "Oggetto\n" +
		"Assicurazione contro gli infortuni\n" +
		"(presupposto processuale),\n" +
		"ricorso contro la sentenza del Tribunale delle assicurazioni " +
		"del Cantone Ticino del 31 marzo 2025 (35.2024.77).\n" +
		"Visto:\n"
	assert.Equal(t, []string{"35_2024_77"}, ExtractPriorInstance(text))
}

func TestExtractPriorInstance_Berufung(t *testing.T) {
	text := "Gegenstand\n" +
		"Unterhalt\n" +
		"Berufung gegen das Urteil des Einzelgerichts am Bezirksgericht Horgen " +
		"vom 6. Oktober 2025 (FP240022-L).\n" +
		"Erwägungen:\n"
	assert.Equal(t, []string{"FP240022_L"}, ExtractPriorInstance(text))
}

func TestExtractPriorInstance_NoneWhenNoAppeal(t *testing.T) {
	text := "Gegenstand\nSteuerfestsetzung.\nErwägungen:\n"
	assert.Empty(t, ExtractPriorInstance(text))
}

func TestExtractPriorInstance_EmptyText(t *testing.T) {
	assert.Empty(t, ExtractPriorInstance(""))
}

func TestDocketsFromParen_CommaSeparated(t *testing.T) {
	result := docketsFromParen("A/1168/2024, ATA/917/2024")
	assert.Len(t, result, 2)
	assert.Contains(t, result, "A_1168_2024")
	assert.Contains(t, result, "ATA_917_2024")
}

func TestDocketsFromParen_SemicolonSeparated(t *testing.T) {
	result := docketsFromParen("4A_648/2024; 5A_203/2025")
	assert.Len(t, result, 2)
	assert.Contains(t, result, "4A_648_2024")
	assert.Contains(t, result, "5A_203_2025")
}

func TestDocketsFromParen_DashSeparated(t *testing.T) {
	result := docketsFromParen("A/1168/2024 AIDSO - ATA/917/2024")
	assert.Len(t, result, 2)
}

func TestDocketsFromParen_Single(t *testing.T) {
	result := docketsFromParen("SBK.2025.285")
	assert.Len(t, result, 1)
	assert.Contains(t, result, "SBK_2025_285")
}
