package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bebidas_pos/internal/api"

	"go.uber.org/zap"
)

const (
	productsPath   = "/catalogo/productos/"
	categoriesPath = "/catalogo/categorias/"
	suppliersPath  = "/catalogo/proveedores/"
	localesPath    = "/core/locales/"

	supplierPageSize = 100
)

var ErrInvalidProductID = errors.New("product id is required")

type Service struct {
	api    *api.Client
	logger *zap.Logger
}

func NewService(client *api.Client, logger *zap.Logger) *Service {
	return &Service{
		api:    client,
		logger: logger.Named("catalog"),
	}
}

func (s *Service) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	query := map[string]string{"search": q.Search}
	if q.Page > 0 {
		query["page"] = strconv.Itoa(q.Page)
	}
	if q.PageSize > 0 {
		query["page_size"] = strconv.Itoa(q.PageSize)
	}
	if q.Ordering != "" {
		query["ordering"] = q.Ordering
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, productsPath, &raw, api.WithQuery(query)); err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	products, count, err := api.DecodeList[Product](raw)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return ProductPage{Count: count, Results: products}, nil
}

// Search runs a backend search and returns at most pageSize products.
func (s *Service) Search(ctx context.Context, term string, pageSize int) ([]Product, error) {
	page, err := s.ListProducts(ctx, ProductQuery{Search: strings.TrimSpace(term), PageSize: pageSize})
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrInvalidProductID
	}
	var out Product
	if err := s.api.Get(ctx, productPath(id), &out); err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return out, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	var out Product
	if err := s.api.Post(ctx, productsPath, in, &out); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.Int64("product_id", out.ID), zap.String("code", out.Code))
	return out, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	if id <= 0 {
		return Product{}, ErrInvalidProductID
	}
	var out Product
	if err := s.api.Patch(ctx, productPath(id), in, &out); err != nil {
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return out, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidProductID
	}
	if err := s.api.Delete(ctx, productPath(id)); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, categoriesPath, &raw); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, _, err := api.DecodeList[Category](raw)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var raw json.RawMessage
	query := map[string]string{"page_size": strconv.Itoa(supplierPageSize)}
	if err := s.api.Get(ctx, suppliersPath, &raw, api.WithQuery(query)); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	suppliers, _, err := api.DecodeList[Supplier](raw)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *Service) ListLocales(ctx context.Context) ([]Local, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, localesPath, &raw); err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	locales, _, err := api.DecodeList[Local](raw)
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	return locales, nil
}

func productPath(id int64) string {
	return fmt.Sprintf("%s%d/", productsPath, id)
}
