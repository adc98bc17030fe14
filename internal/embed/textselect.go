package embed

import "github.com/jura-stack/jura/internal/model"

const regesteMinLen = 20
const fullTextSampleLen = 500

// SelectText implements spec §4.4's text-selection rule: regeste if it is at
// least 20 chars, else the first 500 chars of full_text, else skip (ok=false).
func SelectText(d *model.Decision) (text string, ok bool) {
	if len(d.Regeste) >= regesteMinLen {
		return d.Regeste, true
	}
	if len(d.FullText) > 0 {
		if len(d.FullText) > fullTextSampleLen {
			return d.FullText[:fullTextSampleLen], true
		}
		return d.FullText, true
	}
	return "", false
}
