package repositories

import "encoding/json"

func jsonRaw(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
