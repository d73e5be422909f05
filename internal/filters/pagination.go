package filters

const DefaultPageSize = 12

type Pagination struct {
	Page     int
	Total    int
	PageSize int
}

func (p Pagination) size() int {
	if p.PageSize < 1 {
		return DefaultPageSize
	}
	return p.PageSize
}

func (p Pagination) TotalPages() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Total + p.size() - 1) / p.size()
}

func (p Pagination) HasNext() bool     { return p.Page*p.size() < p.Total }
func (p Pagination) HasPrevious() bool { return p.Page > 1 }

// Window returns at most size consecutive page numbers centered on Page and
// clamped to [1, TotalPages].
func (p Pagination) Window(size int) []int {
	total := p.TotalPages()
	if total == 0 || size < 1 {
		return nil
	}
	start := p.Page - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > total {
		end = total
		start = end - size + 1
		if start < 1 {
			start = 1
		}
	}
	out := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, n)
	}
	return out
}
