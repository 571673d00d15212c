package model

import "sort"

type Channel struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// SortChannels orders by position; ties keep original fetch order.
func SortChannels(chs []Channel) {
	sort.SliceStable(chs, func(i, j int) bool {
		return chs[i].Position < chs[j].Position
	})
}
