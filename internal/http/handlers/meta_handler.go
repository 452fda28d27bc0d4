package handlers

import (
	"github.com/docarchive/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var predefinedLogTypes = []MetaOption{
	{ID: models.LogTypeCreate, Label: "Created"},
	{ID: models.LogTypeUpdate, Label: "Updated"},
	{ID: models.LogTypeDelete, Label: "Deleted"},
	{ID: models.LogTypeView, Label: "Viewed"},
	{ID: models.LogTypeApprove, Label: "Approved"},
	{ID: models.LogTypeReject, Label: "Rejected"},
}

var actorModelLabels = map[models.ActorModel]string{
	models.ActorOfficer: "Records Officer",
	models.ActorAdmin:   "Administrator",
}

func actorModelOptions() []MetaOption {
	opts := make([]MetaOption, 0, len(models.KnownActorModels))
	for _, m := range models.KnownActorModels {
		label, ok := actorModelLabels[m]
		if !ok {
			label = string(m)
		}
		opts = append(opts, MetaOption{ID: string(m), Label: label})
	}
	return opts
}

func (h *MetaHandler) GetLogTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "data": predefinedLogTypes})
}

func (h *MetaHandler) GetActorModels(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "data": actorModelOptions()})
}
