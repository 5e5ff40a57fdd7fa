package render

import (
	"bytes"
	"strings"
	"unicode"
)

// Document is the set of article fields typeset into one PDF.
type Document struct {
	Title                string
	TitleEnglish         string
	Authors              string
	AuthorsEnglish       string
	AffiliationFirst     string
	AffiliationSecond    string
	AffiliationFirstEng  string
	AffiliationSecondEng string
	Abstract             string
	Keywords             string
	AbstractEnglish      string
	KeywordsEnglish      string
	Introduction         string
	Theory               string
	Results              string
	Conclusion           string
	Acknowledgements     string
	References           string
}

const preamble = `\documentclass{article}
\usepackage[T2A,T1]{fontenc}
\usepackage[utf8]{inputenc}
\usepackage[english,russian]{babel}
\usepackage{newtxtext,newtxmath}
\usepackage[tmargin=20mm,lmargin=25mm,rmargin=25mm,bmargin=20mm]{geometry}
\usepackage{lastpage}
\usepackage{indentfirst}
\linespread{1.5}
\setlength{\parindent}{5ex}
\setlength{\parskip}{1ex}
\begin{document}
\pretolerance=10000
\fontsize{12}{12pt}\selectfont
`

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`#`, `\#`,
	`^`, `\textasciicircum{}`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	`%`, `\%`,
	`"`, `\textquotedbl{}`,
)

// Escape turns user text into literal LaTeX body content. Control characters are
// dropped and blank lines become paragraph breaks.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	paras := splitParagraphs(s)
	for i, p := range paras {
		paras[i] = escaper.Replace(cleanLine(p))
	}
	return strings.Join(paras, "\n\n")
}

// HasText reports whether s keeps any visible character after Escape drops
// control characters.
func HasText(s string) bool {
	return strings.TrimSpace(cleanLine(s)) != ""
}

// escapeInline is Escape for headings, where paragraph breaks are not allowed.
func escapeInline(s string) string {
	return escaper.Replace(cleanLine(s))
}

func splitParagraphs(s string) []string {
	var out []string
	var cur []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, " "))
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// cleanLine maps whitespace to single spaces and removes other control characters.
func cleanLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// BuildSource renders doc into a complete LaTeX source with the fixed article
// skeleton: title block, abstract block and six unnumbered sections.
func BuildSource(doc Document) []byte {
	var b bytes.Buffer
	b.WriteString(preamble)

	b.WriteString("\\begin{center}\n")
	heading(&b, "section*", doc.Title)
	heading(&b, "section*", doc.TitleEnglish)
	heading(&b, "subsection*", doc.Authors)
	heading(&b, "subsection*", doc.AffiliationFirst)
	heading(&b, "subsection*", doc.AffiliationSecond)
	heading(&b, "subsection*", doc.AuthorsEnglish)
	heading(&b, "subsection*", doc.AffiliationFirstEng)
	heading(&b, "subsection*", doc.AffiliationSecondEng)
	b.WriteString("\\end{center}\n")

	abstract(&b, "Аннотация. ", doc.Abstract)
	abstract(&b, "Ключевые слова: ", doc.Keywords)
	abstract(&b, "Abstract. ", doc.AbstractEnglish)
	abstract(&b, "Keywords: ", doc.KeywordsEnglish)

	section(&b, "Введение", doc.Introduction)
	section(&b, "Теория", doc.Theory)
	section(&b, "Результаты", doc.Results)
	section(&b, "Выводы и заключение", doc.Conclusion)
	section(&b, "Источник финансирования. Благодарности", doc.Acknowledgements)
	section(&b, "Список источников", doc.References)

	b.WriteString("\\end{document}\n")
	return b.Bytes()
}

func heading(b *bytes.Buffer, cmd, text string) {
	b.WriteString("\\" + cmd + "{" + escapeInline(text) + "}\n")
}

func abstract(b *bytes.Buffer, prefix, text string) {
	b.WriteString("\\par\n" + prefix + Escape(text) + "\\\\\n")
}

func section(b *bytes.Buffer, title, body string) {
	b.WriteString("\\subsection*{" + title + "}\n" + Escape(body) + "\n\n")
}
