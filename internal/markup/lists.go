package markup

import "github.com/goliatone/go-docsync/pkg/interfaces"

type listFrame struct {
	ordered  bool
	itemOpen bool
}

func listTags(ordered bool) (string, string) {
	if ordered {
		return "<ol>", "</ol>"
	}
	return "<ul>", "</ul>"
}

// listItem moves the open list structure to the item's level by a signed
// delta and appends the item. An item whose parent list is missing, or that
// climbs back into a list of the other kind, is written as a plain paragraph
// after closing everything.
func (t *Transcoder) listItem(region interfaces.Region, info interfaces.ListInfo) error {
	level := info.Level
	if level < 1 {
		level = 1
	}
	delta := level - len(t.lists)

	switch {
	case delta > 1:
		t.closeLists()
		return t.paragraph(region)
	case delta == 1:
		t.openList(info.Ordered)
	case delta < 0:
		for ; delta < 0; delta++ {
			t.popList()
		}
		if t.lists[len(t.lists)-1].ordered != info.Ordered {
			t.closeLists()
			return t.paragraph(region)
		}
		t.closeItem()
	default:
		t.closeItem()
		if t.lists[len(t.lists)-1].ordered != info.Ordered {
			t.popList()
			t.openList(info.Ordered)
		}
	}

	top := &t.lists[len(t.lists)-1]
	t.buf.WriteString("<li>")
	top.itemOpen = true
	return t.runs(region)
}

func (t *Transcoder) openList(ordered bool) {
	open, _ := listTags(ordered)
	t.buf.WriteString(open)
	t.lists = append(t.lists, listFrame{ordered: ordered})
}

func (t *Transcoder) closeItem() {
	top := &t.lists[len(t.lists)-1]
	if top.itemOpen {
		t.buf.WriteString("</li>")
		top.itemOpen = false
	}
}

func (t *Transcoder) popList() {
	top := t.lists[len(t.lists)-1]
	if top.itemOpen {
		t.buf.WriteString("</li>")
	}
	_, closing := listTags(top.ordered)
	t.buf.WriteString(closing)
	t.lists = t.lists[:len(t.lists)-1]
}

func (t *Transcoder) closeLists() {
	for len(t.lists) > 0 {
		t.popList()
	}
}
