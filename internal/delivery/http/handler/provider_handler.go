package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/efa-transit/internal/pkg/utils"
	"github.com/efa-transit/internal/usecase/dto"
)

// ProviderHandler - реестр провайдеров EFA
type ProviderHandler struct {
	providers []dto.ProviderInfo
	active    string
}

// NewProviderHandler - создание нового ProviderHandler
func NewProviderHandler(providers []dto.ProviderInfo, active string) *ProviderHandler {
	return &ProviderHandler{
		providers: providers,
		active:    active,
	}
}

// List godoc
// @Summary Провайдеры
// @Description Известные серверы EFA. active отмечает провайдера, которого обслуживает этот экземпляр.
// @Tags Providers
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.ProvidersResponse}
// @Router /api/v1/providers [get]
func (h *ProviderHandler) List(c *fiber.Ctx) error {
	return utils.SendSuccess(c, dto.ProvidersResponse{Providers: h.providers}, &utils.Meta{
		Total:    len(h.providers),
		Provider: h.active,
	})
}
