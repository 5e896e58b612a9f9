package task

import (
	"fmt"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
)

// Language configures one WikiLingua language edition. A single Task type
// parameterized by these records replaces per-language task classes.
type Language struct {
	Code    string // ISO 639-1 code used in task names, e.g. "en"
	Dataset string // dataset directory name, e.g. "english"

	// DocumentField and SummaryField locate the article segments used by
	// the eligibility filter and the default template.
	DocumentField string
	SummaryField  string

	// NewTemplate builds the language's default prompt template. Nil means
	// the generic summarization template.
	NewTemplate func(lang Language) *prompt.Template
}

const (
	defaultDocumentField = "article.document"
	defaultSummaryField  = "article.summary"
)

// Languages is the full WikiLingua language table.
var Languages = []Language{
	{Code: "ar", Dataset: "arabic"},
	{Code: "cs", Dataset: "czech"},
	{Code: "de", Dataset: "german"},
	{Code: "en", Dataset: "english", NewTemplate: englishTemplate},
	{Code: "es", Dataset: "spanish"},
	{Code: "fr", Dataset: "french"},
	{Code: "hi", Dataset: "hindi"},
	{Code: "id", Dataset: "indonesian"},
	{Code: "it", Dataset: "italian"},
	{Code: "ja", Dataset: "japanese"},
	{Code: "ko", Dataset: "korean"},
	{Code: "nl", Dataset: "dutch"},
	{Code: "pt", Dataset: "portuguese"},
	{Code: "ru", Dataset: "russian"},
	{Code: "th", Dataset: "thai"},
	{Code: "tr", Dataset: "turkish"},
	{Code: "vi", Dataset: "vietnamese"},
	{Code: "zh", Dataset: "chinese"},
}

func (l Language) documentField() string {
	if l.DocumentField != "" {
		return l.DocumentField
	}
	return defaultDocumentField
}

func (l Language) summaryField() string {
	if l.SummaryField != "" {
		return l.SummaryField
	}
	return defaultSummaryField
}

// Template returns the language's prompt template.
func (l Language) Template() *prompt.Template {
	if l.NewTemplate != nil {
		return l.NewTemplate(l)
	}
	return defaultTemplate(l)
}

// defaultTemplate prompts with the full article text and scores each
// summary segment as an independent reference.
func defaultTemplate(lang Language) *prompt.Template {
	return &prompt.Template{
		Name:        fmt.Sprintf("wikilingua-%s-summarize", lang.Code),
		Description: fmt.Sprintf("WikiLingua %s article summarization", lang.Dataset),
		Text: fmt.Sprintf("{{join %q \"\\n\"}}\n\n===\n\nWrite a summary of the text above:",
			lang.documentField()),
		TargetField:  lang.summaryField(),
		RawTextField: lang.documentField(),
		Metrics:      []string{"ROUGE", "BLEU"},
	}
}

// englishTemplate mirrors the English edition's custom derivation: the
// prompt uses only the first article segment, and the references collapse
// into one space-joined summary.
func englishTemplate(lang Language) *prompt.Template {
	return &prompt.Template{
		Name:        "wikilingua-en-summarize",
		Description: "WikiLingua english article summarization",
		Text: fmt.Sprintf("{{first %q}}\n\n===\n\nWrite a summary of the text above:",
			lang.documentField()),
		TargetField:  lang.summaryField(),
		JoinTargets:  " ",
		RawTextField: lang.documentField(),
		Metrics:      []string{"ROUGE", "BLEU"},
	}
}
