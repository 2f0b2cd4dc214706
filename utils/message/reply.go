package message

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// Reply 一条待发送的回复：HTML正文 + 去除标记后的纯文本
type Reply struct {
	HTML  string
	Plain string
}

// HTML 以HTML构造回复，纯文本由HTML剥离标记得到
func HTML(s string) Reply {
	return Reply{
		HTML:  s,
		Plain: StripTags(s),
	}
}

// Text 以纯文本构造回复，HTML为其转义并将换行替换为<br/>
func Text(s string) Reply {
	escaped := html.EscapeString(s)
	return Reply{
		HTML:  strings.ReplaceAll(escaped, "\n", "<br/>"),
		Plain: s,
	}
}

// IsEmpty 回复是否为空
func (r Reply) IsEmpty() bool {
	return len(strings.TrimSpace(r.Plain)) == 0 && len(strings.TrimSpace(r.HTML)) == 0
}

// 结束时需要换行的块级元素
var blockTags = map[string]struct{}{
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"p": {}, "div": {}, "pre": {}, "li": {}, "tr": {}, "blockquote": {},
}

// StripTags 去除HTML标记，<br>与块级元素转换为换行
func StripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	writePlain(&b, doc.Find("body"))
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		node := child.Get(0)
		switch node.Type {
		case xhtml.TextNode:
			b.WriteString(node.Data)
		case xhtml.ElementNode:
			if node.Data == "br" {
				b.WriteByte('\n')
				return
			}
			writePlain(b, child)
			if _, ok := blockTags[node.Data]; ok && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
		}
	})
}
