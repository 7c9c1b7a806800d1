package services

import "fmt"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// normalizePage fills defaults and rejects out-of-range windows. orderBy must be
// one of allowed; the first entry is the default column.
func normalizePage(p PageOptions, allowed ...string) (PageOptions, error) {
	if p.Skip < 0 {
		return p, NewInvalidError("skip must not be negative")
	}
	switch {
	case p.Take == 0:
		p.Take = DefaultPageSize
	case p.Take < 0:
		return p, NewInvalidError("take must be positive")
	case p.Take > MaxPageSize:
		p.Take = MaxPageSize
	}
	if p.OrderBy == "" {
		p.OrderBy = allowed[0]
		return p, nil
	}
	for _, col := range allowed {
		if p.OrderBy == col {
			return p, nil
		}
	}
	return p, NewInvalidError(fmt.Sprintf("orderBy must be one of %v", allowed))
}

func pageMeta(total int, p PageOptions) PageMeta {
	return PageMeta{
		Total: total,
		Skip:  p.Skip,
		Take:  p.Take,
		Pages: (total + p.Take - 1) / p.Take,
	}
}
