package euctr

import (
	"regexp"
	"strings"

	"TrialSync/internal/model"

	"golang.org/x/net/html"
)

// eudractPattern EudraCT登记号固定格式：YYYY-NNNNNN-NN
var eudractPattern = regexp.MustCompile(`\d{4}-\d{6}-\d{2}`)

// parseSearchPage 从搜索结果页抽取原始行。
// 优先找class=result的div/tr容器，退化为table.list下含td的行；都找不到返回空
func parseSearchPage(root *html.Node) []*model.EUCTRTrial {
	nodes := findAll(root, func(n *html.Node) bool {
		return (n.Data == "div" || n.Data == "tr") && hasClass(n, "result")
	})
	if len(nodes) == 0 {
		nodes = findListTableRows(root)
	}

	var rows []*model.EUCTRTrial
	for _, n := range nodes {
		if row := extractRow(n); row != nil {
			rows = append(rows, row)
		}
	}
	return rows
}

// extractRow 从单个结果容器抽取字段；登记号与标题双缺失时返回nil
func extractRow(n *html.Node) *model.EUCTRTrial {
	row := &model.EUCTRTrial{}

	// 登记号：优先取指向eudractNumber的链接文本，并顺带拿到详情页链接
	if a := findFirst(n, func(c *html.Node) bool {
		return c.Data == "a" && strings.Contains(attr(c, "href"), "eudractNumber")
	}); a != nil {
		if id := eudractPattern.FindString(textContent(a)); id != "" {
			row.EudraCTID = id
			row.DetailURL = attr(a, "href")
		}
	}
	// 兜底：在整行文本里找固定格式的登记号
	if row.EudraCTID == "" {
		row.EudraCTID = eudractPattern.FindString(textContent(n))
	}

	row.PublicTitle = classText(n, "td", "trialTitle", "div", "title")
	row.Condition = classText(n, "td", "condition", "div", "condition")
	row.Status = classText(n, "td", "status", "span", "status")
	row.MainSponsor = classText(n, "td", "sponsor", "div", "sponsor")

	// 日期列：class含date的td按出现顺序对应开始/完成日期
	dateNodes := findAll(n, func(c *html.Node) bool {
		return c.Data == "td" && strings.Contains(attr(c, "class"), "date")
	})
	for i, d := range dateNodes {
		text := strings.TrimSpace(textContent(d))
		switch {
		case i == 0 && text != "":
			row.StartDate = text
		case i == 1 && text != "":
			row.CompletionDate = text
		}
	}

	if row.EudraCTID == "" && row.PublicTitle == "" {
		return nil
	}
	return row
}

// applyDetailFields 从详情页的label/value表格行里补全研究类型与完成日期
func applyDetailFields(root *html.Node, row *model.EUCTRTrial) {
	labelCells := findAll(root, func(n *html.Node) bool {
		return n.Data == "td" || n.Data == "th"
	})
	for _, cell := range labelCells {
		label := strings.ToLower(strings.TrimSpace(textContent(cell)))
		value := nextCellText(cell)
		if value == "" {
			continue
		}
		switch {
		case row.StudyType == "" && (strings.Contains(label, "trial type") || strings.Contains(label, "study type")):
			row.StudyType = value
		case row.CompletionDate == "" && strings.Contains(label, "date of the global end"):
			row.CompletionDate = value
		}
	}
}

// ========== HTML遍历辅助 ==========

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && match(c) {
			out = append(out, c)
			return // 不进入已命中容器的子树，避免嵌套重复
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, match); found != nil {
			return found
		}
	}
	return nil
}

// findListTableRows 退化选择器：table.list下含td的tr
func findListTableRows(root *html.Node) []*html.Node {
	tables := findAll(root, func(n *html.Node) bool {
		return n.Data == "table" && hasClass(n, "list")
	})
	var rows []*html.Node
	for _, t := range tables {
		trs := findAll(t, func(n *html.Node) bool { return n.Data == "tr" })
		for _, tr := range trs {
			if findFirst(tr, func(n *html.Node) bool { return n.Data == "td" }) != nil {
				rows = append(rows, tr)
			}
		}
	}
	return rows
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// classText 依次尝试(tag, class)组合，返回第一个命中的节点文本
func classText(n *html.Node, pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		tag, class := pairs[i], pairs[i+1]
		if found := findFirst(n, func(c *html.Node) bool {
			return c.Data == tag && hasClass(c, class)
		}); found != nil {
			return strings.TrimSpace(textContent(found))
		}
	}
	return ""
}

// nextCellText 取同一行里紧随label单元格之后的值单元格文本
func nextCellText(cell *html.Node) string {
	for sib := cell.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && (sib.Data == "td" || sib.Data == "th") {
			return strings.TrimSpace(textContent(sib))
		}
	}
	return ""
}
