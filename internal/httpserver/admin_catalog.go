package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopcore/internal/media"
	catalogsvc "shopcore/internal/service/catalog"
)

const maxImageUploadBytes = 10 << 20

func adminListProductsHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context(), catalogsvc.ListInput{
			Query:           c.Query("q"),
			CategorySlug:    c.Query("category"),
			IncludeInactive: true,
			Limit:           intQuery(c, "limit", 0),
			Offset:          intQuery(c, "offset", 0),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
	}
}

func adminGetProductHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.GetProduct(c.Request.Context(), c.Param("id"), true)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func adminCreateProductHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalogsvc.ProductInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		p, err := svc.CreateProduct(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func adminUpdateProductHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalogsvc.ProductInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		p, err := svc.UpdateProduct(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// adminDeleteProductHandler removes the product, then sweeps its media
// prefix. The sweep is best-effort: the product is already gone.
func adminDeleteProductHandler(svc CatalogService, store MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.DeleteProduct(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		if store != nil {
			_ = store.DeletePrefix(c.Request.Context(), productMediaPrefix(id))
		}
		c.Status(http.StatusNoContent)
	}
}

func productMediaPrefix(productID string) string {
	return "products/" + productID + "/"
}

// uploadProductImageHandler accepts a multipart "file" field, renders a
// capped full image plus a thumbnail, stores both, and attaches their URLs
// to the product.
func uploadProductImageHandler(svc CatalogService, store MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			errorJSON(c, http.StatusServiceUnavailable, "media storage not configured")
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "multipart field 'file' required")
			return
		}
		if fileHeader.Size > maxImageUploadBytes {
			errorJSON(c, http.StatusRequestEntityTooLarge, "image exceeds 10 MiB")
			return
		}
		contentType := fileHeader.Header.Get("Content-Type")
		if !media.ValidImageType(contentType) {
			errorJSON(c, http.StatusUnsupportedMediaType, "unsupported image type "+contentType)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		processed, err := media.Process(file)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "could not decode image")
			return
		}

		id := c.Param("id")
		base := uuid.NewString()
		fullKey := path.Join(productMediaPrefix(id), base+".jpg")
		thumbKey := path.Join(productMediaPrefix(id), base+"_thumb.jpg")

		ctx := c.Request.Context()
		fullURL, err := store.Upload(ctx, fullKey, "image/jpeg", bytes.NewReader(processed.Full))
		if err != nil {
			respondError(c, fmt.Errorf("upload image: %w", err))
			return
		}
		thumbURL, err := store.Upload(ctx, thumbKey, "image/jpeg", bytes.NewReader(processed.Thumb))
		if err != nil {
			respondError(c, fmt.Errorf("upload thumbnail: %w", err))
			return
		}

		p, err := svc.AddProductImages(ctx, id, []string{fullURL, thumbURL})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

type removeImageRequest struct {
	URL string `json:"url" binding:"required"`
}

func removeProductImageHandler(svc CatalogService, store MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req removeImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "url required")
			return
		}
		p, err := svc.RemoveProductImage(c.Request.Context(), c.Param("id"), req.URL)
		if err != nil {
			respondError(c, err)
			return
		}
		if store != nil {
			if key, ok := store.KeyFromURL(req.URL); ok {
				_ = store.Delete(c.Request.Context(), key)
			}
		}
		c.JSON(http.StatusOK, p)
	}
}

func adminListCategoriesHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": categories, "count": len(categories)})
	}
}

func adminCreateCategoryHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalogsvc.CategoryInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		cat, err := svc.CreateCategory(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

func adminUpdateCategoryHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalogsvc.CategoryInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		cat, err := svc.UpdateCategory(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func adminDeleteCategoryHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
