package application

import (
	"context"
	"time"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

const (
	featuredLimit     = 6
	newArrivalsLimit  = 8
	newArrivalsWindow = 30 * 24 * time.Hour
)

// ProductList 商品列表结果
type ProductList struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Categories []string          `json:"categories"`
	Brands     []string          `json:"brands"`
}

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	repo domain.ProductRepository
	now  func() time.Time
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(repo domain.ProductRepository) *CatalogQueryService {
	return &CatalogQueryService{repo: repo, now: time.Now}
}

// ListProducts 按条件筛选商品，同时返回全目录的分类与品牌
func (s *CatalogQueryService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*ProductList, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := filter.Apply(all)
	return &ProductList{
		Products:   matched,
		Total:      len(matched),
		Categories: domain.FacetNames(domain.CategoryFacets(all)),
		Brands:     domain.FacetNames(domain.BrandFacets(all)),
	}, nil
}

// GetProduct 获取单个商品
func (s *CatalogQueryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, xerrors.NotFound("product", id)
	}
	return product, nil
}

// ByCategory 指定分类下的商品
func (s *CatalogQueryService) ByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ProductFilter{Category: category}.Apply(all), nil
}

// Featured 精选商品
func (s *CatalogQueryService) Featured(ctx context.Context) ([]*domain.Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Featured(all, featuredLimit), nil
}

// NewArrivals 最近 30 天上架的商品
func (s *CatalogQueryService) NewArrivals(ctx context.Context) ([]*domain.Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewArrivals(all, s.now(), newArrivalsWindow, newArrivalsLimit), nil
}

// Categories 分类及商品数
func (s *CatalogQueryService) Categories(ctx context.Context) ([]domain.Facet, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.CategoryFacets(all), nil
}

// Brands 品牌及商品数
func (s *CatalogQueryService) Brands(ctx context.Context) ([]domain.Facet, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BrandFacets(all), nil
}
