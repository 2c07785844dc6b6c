package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"mealminder/internal/apperr"
	"mealminder/internal/catalog"
	applog "mealminder/internal/log"
	"mealminder/internal/metrics"
	"mealminder/internal/pricing"
	"mealminder/internal/validation"
	"mealminder/models"
)

type productCreateRequest struct {
	SupplierID  uint   `json:"supplierId" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Unit        string `json:"unit"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	CatalogKey  string `json:"catalogKey"`
}

type productUpdateRequest struct {
	Price *int64 `json:"price" validate:"omitempty,gte=0"`
	Stock *int   `json:"stock" validate:"omitempty,gte=0"`
}

type stockResponse struct {
	ProductID  uint `json:"productId"`
	SupplierID uint `json:"supplierId"`
	InStock    bool `json:"inStock"`
	Quantity   int  `json:"quantity"`
}

// offerRow is one product joined with its supplier.
type offerRow struct {
	ProductID    uint
	SupplierID   uint
	SupplierName string
	Name         string
	Unit         string
	Price        int64
	Stock        int
}

// ListProducts returns every product ordered by id.
func ListProducts(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	products := []models.Product{}
	if err := database.WithContext(r.Context()).Order("id ASC").Find(&products).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct adds a product to a supplier's catalog.
func CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var req productCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	key := models.CatalogKey(req.CatalogKey)
	if key == "" {
		key = models.CatalogKey(req.Name)
	}
	if key == "" {
		writeError(w, r, apperr.Validation("invalid request body", apperr.FieldError{Field: "name", Message: "must contain a letter or digit"}))
		return
	}

	product := models.Product{
		SupplierID:  req.SupplierID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CatalogKey:  key,
		Category:    strings.TrimSpace(req.Category),
		Unit:        strings.TrimSpace(req.Unit),
		Price:       req.Price,
		Stock:       req.Stock,
	}

	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var suppliers int64
		if err := tx.Model(&models.Supplier{}).Where("id = ?", req.SupplierID).Count(&suppliers).Error; err != nil {
			return err
		}
		if suppliers == 0 {
			return apperr.Validation("invalid request body", apperr.FieldError{
				Field:   "supplierId",
				Message: fmt.Sprintf("supplier %d does not exist", req.SupplierID),
			})
		}

		var existing int64
		if err := tx.Model(&models.Product{}).Where("supplier_id = ? AND catalog_key = ?", req.SupplierID, key).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("supplier already lists this product")
		}
		return tx.Create(&product).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = apperr.Conflict("supplier already lists this product")
		}
		writeError(w, r, err)
		return
	}

	applog.Info(r.Context(), "product created", "product_id", product.ID, "supplier_id", product.SupplierID)
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct changes price and stock. A new price records the previous one in
// the price history.
func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req productUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	var product models.Product
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return notFoundOr(err, "product not found")
		}
		if req.Price != nil {
			if _, err := catalog.SetPrice(tx, &product, *req.Price, models.PriceSourceAPI); err != nil {
				return err
			}
		}
		if req.Stock != nil && *req.Stock != product.Stock {
			if err := tx.Model(&product).Update("stock", *req.Stock).Error; err != nil {
				return err
			}
			product.Stock = *req.Stock
		}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ComparePrices lists every active supplier's offer for the product, cheapest first.
func ComparePrices(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	product, err := loadProduct(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	var rows []offerRow
	err = database.WithContext(ctx).
		Table("products").
		Select("products.id AS product_id, products.supplier_id, suppliers.name AS supplier_name, products.name, products.unit, products.price, products.stock").
		Joins("JOIN suppliers ON suppliers.id = products.supplier_id").
		Where("products.catalog_key = ? AND suppliers.active = ?", product.CatalogKey, true).
		Scan(&rows).Error
	if err != nil {
		writeError(w, r, err)
		return
	}

	offers := make([]pricing.Offer, 0, len(rows))
	for _, row := range rows {
		offer := pricing.Offer{
			ProductID:    row.ProductID,
			SupplierID:   row.SupplierID,
			SupplierName: row.SupplierName,
			Name:         row.Name,
			Unit:         row.Unit,
			Price:        row.Price,
			Stock:        row.Stock,
		}
		var last models.PriceHistory
		err := database.WithContext(ctx).
			Where("product_id = ?", row.ProductID).
			Order("recorded_at DESC").Order("id DESC").
			Limit(1).Find(&last).Error
		if err != nil {
			writeError(w, r, err)
			return
		}
		if last.ID != 0 {
			previous := last.Price
			offer.PreviousPrice = &previous
		}
		offers = append(offers, offer)
	}

	metrics.PriceComparisonsTotal.Inc()
	writeJSON(w, http.StatusOK, pricing.Compare(offers))
}

// ProductStock reports whether a supplier has the product in stock.
func ProductStock(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	supplierID, err := strconv.ParseUint(r.URL.Query().Get("supplierId"), 10, 64)
	if err != nil || supplierID == 0 {
		writeError(w, r, apperr.Validation("invalid query", apperr.FieldError{Field: "supplierId", Message: "must be a positive integer"}))
		return
	}

	var product models.Product
	tx := database.WithContext(r.Context())
	sameItem := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Product{}).Select("catalog_key").Where("id = ?", id)
	err = tx.
		Where("supplier_id = ?", supplierID).
		Where("id = ? OR catalog_key = ?", id, sameItem).
		Order("id ASC").
		First(&product).Error
	if err != nil {
		writeError(w, r, notFoundOr(err, "product not stocked by supplier"))
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{
		ProductID:  product.ID,
		SupplierID: product.SupplierID,
		InStock:    product.Stock > 0,
		Quantity:   product.Stock,
	})
}

func loadProduct(r *http.Request) (models.Product, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return models.Product{}, err
	}
	var product models.Product
	if err := database.WithContext(r.Context()).First(&product, id).Error; err != nil {
		return models.Product{}, notFoundOr(err, "product not found")
	}
	return product, nil
}
