package activity

import (
	"github.com/dalemusser/projectdash/internal/app/system/paging"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
)

// listItem is one audit event row.
type listItem struct {
	When      string
	Category  string
	EventType string
	Label     string
	IP        string
	Success   bool
	Reason    string
	Details   []detail
}

type detail struct {
	Key   string
	Value string
}

type categoryOption struct {
	Value    string
	Selected bool
}

type listData struct {
	viewdata.BaseVM

	Items      []listItem
	Category   string
	Categories []categoryOption

	Page     int
	Pages    int
	Total    int64
	Range    paging.Range
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}
