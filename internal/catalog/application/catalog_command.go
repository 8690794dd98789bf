package application

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/idgen"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/validate"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// CreateProductCommand 创建商品命令，价格与库存接受字符串或数字
type CreateProductCommand struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       any      `json:"price"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Stock       any      `json:"stock"`
	Rating      any      `json:"rating"`
	Images      []string `json:"images" validate:"omitempty,dive,required"`
}

// 库存允许为 0，因此数值字段只检查是否提供
func (c CreateProductCommand) missingFields() []string {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Description) == "" {
		missing = append(missing, "description")
	}
	if c.Price == nil || c.Price == "" {
		missing = append(missing, "price")
	}
	if strings.TrimSpace(c.Category) == "" {
		missing = append(missing, "category")
	}
	if c.Stock == nil || c.Stock == "" {
		missing = append(missing, "stock")
	}
	return missing
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	repo      domain.ProductRepository
	publisher domain.EventPublisher
	now       func() time.Time
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(repo domain.ProductRepository, publisher domain.EventPublisher) *CatalogCommandService {
	return &CatalogCommandService{repo: repo, publisher: publisher, now: time.Now}
}

// CreateProduct 处理创建商品
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if missing := cmd.missingFields(); len(missing) > 0 {
		return nil, xerrors.MissingFields(missing...)
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	price, err := parsePrice(cmd.Price)
	if err != nil {
		return nil, err
	}
	stock, err := parseStock(cmd.Stock)
	if err != nil {
		return nil, err
	}
	var rating float64
	if cmd.Rating != nil {
		if rating, err = parseRating(cmd.Rating); err != nil {
			return nil, err
		}
	}
	images := cmd.Images
	if images == nil {
		images = []string{}
	}

	now := s.now()
	product := &domain.Product{
		ID:          idgen.Next(),
		Name:        strings.TrimSpace(cmd.Name),
		Description: cmd.Description,
		Price:       price,
		Category:    strings.TrimSpace(cmd.Category),
		Brand:       strings.TrimSpace(cmd.Brand),
		Stock:       stock,
		Rating:      rating,
		Images:      images,
		CreatedAt:   now,
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.ProductCreatedTopic, product, product.Stock)
	logger.Info(ctx, "product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct 只写入提供的字段，未提供的字段保持不变
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, id string, fields map[string]any) (*domain.Product, error) {
	patch, err := parsePatch(fields)
	if err != nil {
		return nil, err
	}
	before, after, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, xerrors.NotFound("product", id)
	}

	s.publish(ctx, domain.ProductUpdatedTopic, after, before.Stock)
	logger.Info(ctx, "product updated", "product_id", id, "fields", len(fields))
	return after, nil
}

// DeleteProduct 删除商品；已下单的订单保留对该商品的引用
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return xerrors.NotFound("product", id)
	}

	if err := s.publisher.Publish(ctx, domain.ProductDeletedTopic, id, domain.ProductDeletedEvent{ProductID: id, Timestamp: s.now()}); err != nil {
		logger.Warn(ctx, "publish product event failed", "topic", domain.ProductDeletedTopic, "product_id", id, "error", err)
	}
	logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}

func (s *CatalogCommandService) publish(ctx context.Context, topic string, p *domain.Product, oldStock int) {
	event := domain.ProductChangedEvent{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price.String(),
		Stock:     p.Stock,
		OldStock:  oldStock,
		Category:  p.Category,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(ctx, topic, p.ID, event); err != nil {
		logger.Warn(ctx, "publish product event failed", "topic", topic, "product_id", p.ID, "error", err)
	}
}

func parsePatch(fields map[string]any) (domain.ProductPatch, error) {
	var patch domain.ProductPatch
	for key, v := range fields {
		if v == nil {
			continue
		}
		switch key {
		case "name":
			text, err := requireText(key, v)
			if err != nil {
				return patch, err
			}
			patch.Name = &text
		case "description":
			text, err := requireText(key, v)
			if err != nil {
				return patch, err
			}
			patch.Description = &text
		case "category":
			text, err := requireText(key, v)
			if err != nil {
				return patch, err
			}
			patch.Category = &text
		case "brand":
			text, err := parseText(key, v)
			if err != nil {
				return patch, err
			}
			patch.Brand = &text
		case "price":
			price, err := parsePrice(v)
			if err != nil {
				return patch, err
			}
			patch.Price = &price
		case "stock":
			stock, err := parseStock(v)
			if err != nil {
				return patch, err
			}
			patch.Stock = &stock
		case "rating":
			rating, err := parseRating(v)
			if err != nil {
				return patch, err
			}
			patch.Rating = &rating
		case "images":
			images, err := parseImages(v)
			if err != nil {
				return patch, err
			}
			patch.Images = &images
		}
	}
	return patch, nil
}

func requireText(field string, v any) (string, error) {
	s, err := parseText(field, v)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", xerrors.Invalid(field, "%s must not be empty", field)
	}
	return s, nil
}
