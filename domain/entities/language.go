package entities

import "unicode"

// Language identifies a customer-facing language supported by the pipeline.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageHindi     Language = "hi"
	LanguageTamil     Language = "ta"
	LanguageTelugu    Language = "te"
	LanguageKannada   Language = "kn"
	LanguageMalayalam Language = "ml"
	LanguageBengali   Language = "bn"
	LanguageMarathi   Language = "mr"
	LanguageGujarati  Language = "gu"
	LanguagePunjabi   Language = "pa"
	LanguageOdia      Language = "or"
	LanguageUrdu      Language = "ur"
)

// PivotLanguage is the single language the reasoning component operates in.
// Customer input is translated into it before reasoning and back afterwards.
const PivotLanguage = LanguageEnglish

// Supported reports whether the language is one the pipeline can serve.
func (l Language) Supported() bool {
	switch l {
	case LanguageEnglish, LanguageHindi, LanguageTamil, LanguageTelugu,
		LanguageKannada, LanguageMalayalam, LanguageBengali, LanguageMarathi,
		LanguageGujarati, LanguagePunjabi, LanguageOdia, LanguageUrdu:
		return true
	}
	return false
}

// Script returns the writing system conventionally used by the language.
func (l Language) Script() Script {
	switch l {
	case LanguageHindi, LanguageMarathi:
		return ScriptDevanagari
	case LanguageBengali:
		return ScriptBengali
	case LanguageTamil:
		return ScriptTamil
	case LanguageTelugu:
		return ScriptTelugu
	case LanguageKannada:
		return ScriptKannada
	case LanguageMalayalam:
		return ScriptMalayalam
	case LanguageGujarati:
		return ScriptGujarati
	case LanguagePunjabi:
		return ScriptGurmukhi
	case LanguageOdia:
		return ScriptOdia
	case LanguageUrdu:
		return ScriptArabic
	default:
		return ScriptLatin
	}
}

// Script is a closed enumeration of writing systems the pipeline understands.
type Script int

const (
	ScriptLatin Script = iota
	ScriptDevanagari
	ScriptBengali
	ScriptTamil
	ScriptTelugu
	ScriptKannada
	ScriptMalayalam
	ScriptGujarati
	ScriptGurmukhi
	ScriptOdia
	ScriptArabic
)

func (s Script) String() string {
	switch s {
	case ScriptLatin:
		return "latin"
	case ScriptDevanagari:
		return "devanagari"
	case ScriptBengali:
		return "bengali"
	case ScriptTamil:
		return "tamil"
	case ScriptTelugu:
		return "telugu"
	case ScriptKannada:
		return "kannada"
	case ScriptMalayalam:
		return "malayalam"
	case ScriptGujarati:
		return "gujarati"
	case ScriptGurmukhi:
		return "gurmukhi"
	case ScriptOdia:
		return "odia"
	case ScriptArabic:
		return "arabic"
	default:
		return "unknown"
	}
}

// SentenceTerminators returns the characters that end a sentence in this
// script. Every set includes the Latin terminators because transcribed and
// generated text freely mixes them in.
func (s Script) SentenceTerminators() []rune {
	switch s {
	case ScriptDevanagari, ScriptGurmukhi, ScriptKannada:
		return []rune{'.', '!', '?', '।', '॥'}
	case ScriptBengali, ScriptTamil, ScriptTelugu, ScriptMalayalam, ScriptGujarati, ScriptOdia:
		return []rune{'.', '!', '?', '।'}
	case ScriptArabic:
		return []rune{'.', '!', '?', '؟', '۔'}
	default:
		return []rune{'.', '!', '?'}
	}
}

var scriptRanges = []struct {
	script Script
	table  *unicode.RangeTable
}{
	{ScriptLatin, unicode.Latin},
	{ScriptDevanagari, unicode.Devanagari},
	{ScriptBengali, unicode.Bengali},
	{ScriptTamil, unicode.Tamil},
	{ScriptTelugu, unicode.Telugu},
	{ScriptKannada, unicode.Kannada},
	{ScriptMalayalam, unicode.Malayalam},
	{ScriptGujarati, unicode.Gujarati},
	{ScriptGurmukhi, unicode.Gurmukhi},
	{ScriptOdia, unicode.Oriya},
	{ScriptArabic, unicode.Arabic},
}

// DetectScript classifies the dominant writing system of a text fragment by
// tallying per-script rune counts. Latin is the baseline when no recognizable
// letters are present. Ties resolve to the earlier entry in the fixed script
// order, so results are deterministic.
func DetectScript(text string) Script {
	counts := make([]int, len(scriptRanges))
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		for i := range scriptRanges {
			if unicode.Is(scriptRanges[i].table, r) {
				counts[i]++
				break
			}
		}
	}

	best := ScriptLatin
	bestCount := 0
	for i, n := range counts {
		if n > bestCount {
			best = scriptRanges[i].script
			bestCount = n
		}
	}
	return best
}
