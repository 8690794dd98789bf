package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/catalog/application"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/response"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// CatalogHandler 商品目录 HTTP 处理器
type CatalogHandler struct {
	commands *application.CatalogCommandService
	queries  *application.CatalogQueryService
}

// NewCatalogHandler 创建商品目录 HTTP 处理器实例
func NewCatalogHandler(commands *application.CatalogCommandService, queries *application.CatalogQueryService) *CatalogHandler {
	return &CatalogHandler{commands: commands, queries: queries}
}

// RegisterRoutes 注册公开的商品查询路由
func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup) {
	products := api.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/featured", h.Featured)
		products.GET("/new-arrivals", h.NewArrivals)
		products.GET("/categories", h.Categories)
		products.GET("/brands", h.Brands)
		products.GET("/category/:category", h.ByCategory)
		products.GET("/:id", h.GetProduct)
	}
}

// RegisterAdminRoutes 注册商品管理路由，调用方负责挂载鉴权中间件
func (h *CatalogHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
}

// ListProducts 商品列表，支持 category / brand / minPrice / maxPrice / search / sort
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Search:   c.Query("search"),
		Sort:     domain.SortKey(c.Query("sort")),
	}
	var err error
	if filter.MinPrice, err = priceQuery(c, "minPrice"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.MaxPrice, err = priceQuery(c, "maxPrice"); err != nil {
		response.Error(c, err)
		return
	}

	list, err := h.queries.ListProducts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.queries.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, product)
}

// ByCategory 按分类查询商品
func (h *CatalogHandler) ByCategory(c *gin.Context) {
	products, err := h.queries.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, products)
}

// Featured 推荐商品
func (h *CatalogHandler) Featured(c *gin.Context) {
	products, err := h.queries.Featured(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, products)
}

// NewArrivals 新品
func (h *CatalogHandler) NewArrivals(c *gin.Context) {
	products, err := h.queries.NewArrivals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, products)
}

// Categories 分类及商品数
func (h *CatalogHandler) Categories(c *gin.Context) {
	facets, err := h.queries.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, facets)
}

// Brands 品牌及商品数
func (h *CatalogHandler) Brands(c *gin.Context) {
	facets, err := h.queries.Brands(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, facets)
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var cmd application.CreateProductCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return
	}
	product, err := h.commands.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 部分更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return
	}
	product, err := h.commands.UpdateProduct(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.commands.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func priceQuery(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, xerrors.Invalid(key, "%s must be a number", key)
	}
	return &v, nil
}
