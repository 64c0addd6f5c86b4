package view

type Page[R any] struct {
	Items      []R `json:"items"`
	PageIndex  int `json:"pageIndex"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
}

// TotalPages is ceil(count/size), never less than 1.
func TotalPages(count, size int) int {
	if size < 1 {
		size = 1
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Paginate slices out the 1-based page pageIndex. An index past the last page
// yields an empty page instead of failing; clamping is the caller's job.
func Paginate[R any](records []R, pageSize, pageIndex int) Page[R] {
	if pageSize < 1 {
		pageSize = 1
	}

	p := Page[R]{
		Items:      []R{},
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalPages: TotalPages(len(records), pageSize),
		TotalCount: len(records),
	}
	if pageIndex < 1 {
		return p
	}

	start := (pageIndex - 1) * pageSize
	if start >= len(records) {
		return p
	}
	end := min(start+pageSize, len(records))
	p.Items = append(p.Items, records[start:end]...)
	return p
}

func clamp(index, totalPages int) int {
	if index < 1 {
		return 1
	}
	if index > totalPages {
		return totalPages
	}
	return index
}
