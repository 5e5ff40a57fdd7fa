package render

import (
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	cases := map[string]string{
		`50% & $5 #1 a_b`:      `50\% \& \$5 \#1 a\_b`,
		`\input{/etc/passwd}`:  `\textbackslash{}input\{/etc/passwd\}`,
		"x^2 ~y":               `x\textasciicircum{}2 \textasciitilde{}y`,
		`"quoted"`:             `\textquotedbl{}quoted\textquotedbl{}`,
		"bell\x07 and\x00 nul": "bell and nul",
		"first\n\n\nsecond":    "first\n\nsecond",
		"one\nline":            "one line",
		"Привет, мир":          "Привет, мир",
	}
	for in, want := range cases {
		if got := Escape(in); got != want {
			t.Fatalf("Escape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasText(t *testing.T) {
	cases := map[string]bool{
		"":             false,
		"\x01":         false,
		"\x00\t\x1b\n": false,
		"\ufffd":       false,
		"a\x01":        true,
		"Текст":        true,
	}
	for in, want := range cases {
		if got := HasText(in); got != want {
			t.Fatalf("HasText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBuildSourceSkeleton(t *testing.T) {
	doc := sampleDocument("Заголовок")
	doc.Introduction = `\write18{rm -rf /}`
	src := string(BuildSource(doc))

	for _, want := range []string{
		`\documentclass{article}`,
		`\usepackage[T2A,T1]{fontenc}`,
		`\usepackage[english,russian]{babel}`,
		`\section*{Заголовок}`,
		"Аннотация. ",
		"Ключевые слова: ",
		"Abstract. ",
		"Keywords: ",
		`\subsection*{Введение}`,
		`\subsection*{Теория}`,
		`\subsection*{Результаты}`,
		`\subsection*{Выводы и заключение}`,
		`\subsection*{Источник финансирования. Благодарности}`,
		`\subsection*{Список источников}`,
		`\end{document}`,
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("source missing %q", want)
		}
	}
	if strings.Contains(src, `\write18`) {
		t.Fatalf("user input was not escaped")
	}
	if strings.Index(src, "Введение") > strings.Index(src, "Список источников") {
		t.Fatalf("sections out of order")
	}
}

func TestHeadingsStayOnOneLine(t *testing.T) {
	doc := sampleDocument("line one\n\nline two")
	src := string(BuildSource(doc))
	if !strings.Contains(src, `\section*{line one line two}`) {
		t.Fatalf("heading kept a paragraph break:\n%s", src)
	}
}

func sampleDocument(title string) Document {
	return Document{
		Title:                title,
		TitleEnglish:         "Title",
		Authors:              "Иванов И.И.",
		AuthorsEnglish:       "Ivanov I.I.",
		AffiliationFirst:     "МГУ",
		AffiliationSecond:    "Москва",
		AffiliationFirstEng:  "MSU",
		AffiliationSecondEng: "Moscow",
		Abstract:             "Аннотация текста",
		Keywords:             "ключ, слово",
		AbstractEnglish:      "Abstract text",
		KeywordsEnglish:      "key, word",
		Introduction:         "Введение",
		Theory:               "Теория",
		Results:              "Результаты",
		Conclusion:           "Выводы",
		Acknowledgements:     "Спасибо",
		References:           "1. Книга",
	}
}
