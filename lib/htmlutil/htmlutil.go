package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("vplan.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	// <br> separates words inside table cells
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteByte(' ')
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText maps every unicode space (including &nbsp;) to an ascii space,
// drops non-printable runes, trims and collapses inner whitespace.
func CleanText(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsSpace(c) {
			out.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	cleaned := strings.Trim(out.String(), " ")
	return innerWhitespace.ReplaceAllString(cleaned, " ")
}

// NodeText is GetText followed by CleanText.
func NodeText(node *html.Node) string {
	return CleanText(GetText(node))
}

type Option struct {
	Value string
	Text  string
}

// GetOptions returns the <option> children of every node in sel.
func GetOptions(ctx context.Context, sel *goquery.Selection) []Option {
	_, span := tracer.Start(ctx, "GetOptions")
	defer span.End()

	options := []Option{}
	sel.Find("option").Each(func(_ int, s *goquery.Selection) {
		value, ok := s.Attr("value")
		text := NodeText(s.Get(0))
		if !ok {
			value = text
		}
		options = append(options, Option{
			Value: strings.TrimSpace(value),
			Text:  text,
		})
		span.AddEvent("option", trace.WithAttributes(
			attribute.String("value", value),
			attribute.String("text", text),
		))
	})

	return options
}
