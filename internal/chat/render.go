package chat

import (
	"bytes"
	"reflect"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const selfAuthor = "You"

// CreateChatMessageElement builds a chat bubble:
//
//	<div class="chat-msg own|peer"><div class="msg-author">…</div><div>…</div></div>
//
// author and text are stored as text nodes and are never parsed as markup.
func CreateChatMessageElement(author, text string, isSelf bool) *html.Node {
	side := "peer"
	if isSelf {
		side = "own"
		author = selfAuthor
	}

	el := newDiv("chat-msg " + side)
	authorEl := newDiv("msg-author")
	authorEl.AppendChild(newText(author))
	bodyEl := newDiv("")
	bodyEl.AppendChild(newText(text))

	el.AppendChild(authorEl)
	el.AppendChild(bodyEl)
	return el
}

// CreateSystemMessageElement builds a join/leave style notice.
func CreateSystemMessageElement(text string) *html.Node {
	el := newDiv("chat-msg system")
	el.AppendChild(newText(text))
	return el
}

// ShouldSendMessage reports whether text is worth publishing over session.
// Typed nil pointers count as no session.
func ShouldSendMessage(text string, session any) bool {
	return Trim(text) != "" && !isNil(session)
}

// RenderNode serializes n with text escaped.
func RenderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(TextContent(c))
	}
	return b.String()
}

// ClassName returns the class attribute of n.
func ClassName(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return a.Val
		}
	}
	return ""
}

func newDiv(class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func newText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
