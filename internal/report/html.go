package report

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const reportCSS = `html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;color:#1c1917;background:#fff;padding:0.6rem;}
.report-wrap{max-width:1000px;margin:0 auto;}
.report-html h1{border-bottom:2px solid #0f766e;padding-bottom:0.3rem;}
.report-html h2{color:#0f766e;margin-top:1.6rem;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.3rem 0.45rem;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
.report-html td[style*="right"],.report-html th[style*="right"]{font-variant-numeric:tabular-nums;}
.report-html figure.chart{margin:1rem 0;}
.report-html figure.chart svg{width:100%;height:auto;}
.report-html figure.chart figcaption{font-size:0.8rem;color:#57534e;text-align:center;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report-wrap{max-width:none;} }`

var (
	reAnnualHeading  = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Annual Cash Flows\s*</h2>`)
	reBreachSentence = regexp.MustCompile(`(?i)<p>(Probability of minimum DSCR below)`)
)

// RenderHTML converts report Markdown into a standalone HTML document
func RenderHTML(title, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-html'>" + applyPrintLayoutHooks(content.String()) + "</div></div>" +
		"</body></html>", nil
}

// applyPrintLayoutHooks starts the long annual table on a fresh page and
// tags the covenant breach paragraph for styling.
func applyPrintLayoutHooks(contentHTML string) string {
	out := reAnnualHeading.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Annual Cash Flows</h2>`)
	out = reBreachSentence.ReplaceAllString(out, `<p class="covenant-risk">$1`)
	return out
}
