package handlers

import (
	"forgood-mission-system/services"
	"forgood-mission-system/utils"

	"github.com/gofiber/fiber/v2"
)

const maxProofFileBytes = 50 * 1024 * 1024

func SetupUploadRoutes(app *fiber.App) {
	app.Post("/uploads", uploadProofFile())
	app.Static("/uploads", utils.UploadDir)
}

// uploadProofFile stores a proof file and returns the URI to reference in a
// proof submission. R2 when configured, local disk otherwise.
func uploadProofFile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fail(c, services.ErrValidation("multipart field %q is required", "file"))
		}
		if fileHeader.Size > maxProofFileBytes {
			return fail(c, services.ErrValidation("proof file exceeds the 50MB limit"))
		}
		contentType := fileHeader.Header.Get("Content-Type")
		if !utils.AllowedProofMime(contentType) {
			return fail(c, services.ErrValidation("unsupported proof type %q — use an image, mp4 video or PDF", contentType))
		}

		key := utils.ProofObjectKey(fileHeader.Filename)

		if utils.R2Enabled() {
			url, err := utils.UploadProofToR2(fileHeader, key)
			if err != nil {
				return fail(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"proof_uri": url, "storage": "r2"})
		}

		if err := utils.SaveFile(fileHeader, utils.LocalUploadPath(key)); err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"proof_uri": "/uploads/" + key, "storage": "local"})
	}
}
