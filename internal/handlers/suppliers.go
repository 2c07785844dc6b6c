package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"mealminder/internal/apperr"
	"mealminder/internal/catalog"
	applog "mealminder/internal/log"
	"mealminder/internal/metrics"
	"mealminder/internal/pricelist"
	"mealminder/internal/validation"
	"mealminder/models"
)

const maxPriceListBytes = 10 << 20

type supplierCreateRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Description    string   `json:"description"`
	Website        string   `json:"website" validate:"omitempty,url"`
	Active         *bool    `json:"active"`
	CommissionRate *float64 `json:"commissionRate" validate:"omitempty,gte=0,lte=1"`
}

// ListSuppliers returns every supplier ordered by id.
func ListSuppliers(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	suppliers := []models.Supplier{}
	if err := database.WithContext(r.Context()).Order("id ASC").Find(&suppliers).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

// CreateSupplier registers a supplier. Names are unique.
func CreateSupplier(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	if !isJSONRequest(r) {
		writeError(w, r, apperr.New(apperr.KindUnsupportedMediaType, "content type must be application/json"))
		return
	}

	var req supplierCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Website = strings.TrimSpace(req.Website)
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	supplier := models.Supplier{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Website:     req.Website,
		Active:      true,
	}
	if req.Active != nil {
		supplier.Active = *req.Active
	}
	if req.CommissionRate != nil {
		supplier.CommissionRate = *req.CommissionRate
	}

	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Supplier{}).Where("name = ?", supplier.Name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("a supplier with this name already exists")
		}
		return tx.Create(&supplier).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = apperr.Conflict("a supplier with this name already exists")
		}
		writeError(w, r, err)
		return
	}

	applog.Info(r.Context(), "supplier created", "supplier_id", supplier.ID, "name", supplier.Name)
	writeJSON(w, http.StatusCreated, supplier)
}

// GetSupplier returns one supplier.
func GetSupplier(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	supplier, err := loadSupplier(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

// ListSupplierProducts returns the products a supplier sells.
func ListSupplierProducts(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	supplier, err := loadSupplier(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	products := []models.Product{}
	if err := database.WithContext(r.Context()).Where("supplier_id = ?", supplier.ID).Order("id ASC").Find(&products).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// UploadPriceList imports a CSV or PDF price list sent as the multipart field "file".
func UploadPriceList(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	supplier, err := loadSupplier(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPriceListBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		applog.Debug(r.Context(), "price list upload without file", "error", err)
		writeError(w, r, apperr.Validation("invalid request body", apperr.FieldError{Field: "file", Message: "is required"}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperr.Validation("could not read uploaded file"))
		return
	}

	entries, err := pricelist.Parse(header.Filename, data)
	if err != nil {
		metrics.PriceListRowsTotal.WithLabelValues("rejected").Inc()
		writeError(w, r, apperr.Validation("invalid price list", apperr.FieldError{Field: "file", Message: err.Error()}))
		return
	}

	result, err := catalog.Import(r.Context(), database, supplier.ID, entries)
	if err != nil {
		var lineErr *pricelist.LineError
		switch {
		case errors.Is(err, catalog.ErrSupplierNotFound):
			err = apperr.NotFound("supplier not found")
		case errors.As(err, &lineErr):
			err = apperr.Validation("invalid price list", apperr.FieldError{Field: "file", Message: lineErr.Error()})
		}
		writeError(w, r, err)
		return
	}

	metrics.PriceListRowsTotal.WithLabelValues("created").Add(float64(result.Created))
	metrics.PriceListRowsTotal.WithLabelValues("updated").Add(float64(result.Updated))
	metrics.PriceListRowsTotal.WithLabelValues("unchanged").Add(float64(result.Unchanged))
	applog.Info(r.Context(), "price list imported", "supplier_id", supplier.ID, "file", header.Filename,
		"created", result.Created, "updated", result.Updated, "unchanged", result.Unchanged)
	writeJSON(w, http.StatusOK, result)
}

func loadSupplier(r *http.Request) (models.Supplier, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return models.Supplier{}, err
	}
	var supplier models.Supplier
	if err := database.WithContext(r.Context()).First(&supplier, id).Error; err != nil {
		return models.Supplier{}, notFoundOr(err, "supplier not found")
	}
	return supplier, nil
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
