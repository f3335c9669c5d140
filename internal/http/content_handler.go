package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homego/internal/kv"
)

const contentPrefix = "content:"

// ContentHandler sirve los bloques editables del sitio (banners, textos
// de la home) como documentos JSON por clave sobre el almacén
// clave-valor del servidor.
type ContentHandler struct {
	logger *zap.Logger
	store  kv.Store
}

func NewContentHandler(logger *zap.Logger, store kv.Store) *ContentHandler {
	return &ContentHandler{logger: logger, store: store}
}

// Get maneja GET /api/content/:key. Una clave inexistente responde un
// documento vacío, no 404: el front renderiza su contenido por defecto.
func (h *ContentHandler) Get(c *gin.Context) {
	raw, err := h.store.Get(contentPrefix + c.Param("key"))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		h.logger.Error("get content failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		h.logger.Error("decode stored content failed", zap.String("key", c.Param("key")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Put maneja PUT /api/content/:key. Solo admins: upsert del documento
// completo bajo la clave.
func (h *ContentHandler) Put(c *gin.Context) {
	var doc map[string]interface{}
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.store.Set(contentPrefix+c.Param("key"), string(raw)); err != nil {
		h.logger.Error("store content failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}
