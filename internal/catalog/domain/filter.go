package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SortKey 排序方式
type SortKey string

const (
	SortNone      SortKey = ""
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// ProductFilter 商品列表筛选条件，零值表示不过滤
type ProductFilter struct {
	Category string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     SortKey
}

// Match 判断商品是否满足筛选条件，分类与品牌不区分大小写
func (f ProductFilter) Match(p *Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// Apply 过滤并排序，不修改入参；未知排序方式保持原顺序
func (f ProductFilter) Apply(products []*Product) []*Product {
	out := make([]*Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	SortProducts(out, f.Sort)
	return out
}

// SortProducts 稳定排序
func SortProducts(products []*Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b *Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b *Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(products, func(a, b *Product) int { return cmp.Compare(b.Rating, a.Rating) })
	case SortNewest:
		slices.SortStableFunc(products, func(a, b *Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
}

// FeaturedRating 精选商品最低评分
const FeaturedRating = 4.5

// Featured 评分不低于 4.5 的商品，按评分降序取前 limit 个
func Featured(products []*Product, limit int) []*Product {
	out := make([]*Product, 0)
	for _, p := range products {
		if p.Rating >= FeaturedRating {
			out = append(out, p)
		}
	}
	SortProducts(out, SortRating)
	return head(out, limit)
}

// NewArrivals 最近 window 内创建的商品，按创建时间降序取前 limit 个
func NewArrivals(products []*Product, now time.Time, window time.Duration, limit int) []*Product {
	cutoff := now.Add(-window)
	out := make([]*Product, 0)
	for _, p := range products {
		if !p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	SortProducts(out, SortNewest)
	return head(out, limit)
}

// Facet 分类或品牌及其商品数
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryFacets 按分类统计商品数，按首次出现顺序返回
func CategoryFacets(products []*Product) []Facet {
	return facets(products, func(p *Product) string { return p.Category })
}

// BrandFacets 按品牌统计商品数，按首次出现顺序返回
func BrandFacets(products []*Product) []Facet {
	return facets(products, func(p *Product) string { return p.Brand })
}

// FacetNames 提取名称
func FacetNames(fs []Facet) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

func facets(products []*Product, key func(*Product) string) []Facet {
	index := make(map[string]int)
	out := make([]Facet, 0)
	for _, p := range products {
		k := key(p)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Facet{Name: k, Count: 1})
	}
	return out
}

func head(products []*Product, limit int) []*Product {
	if limit > 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}
