// Package routes defines the API routes and URL structure
package routes

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/swaggo/swag"

	_ "github.com/effectiveacceleration/marketplace/docs/swagger" // Import generated docs
)

// SwaggerDocPath serves the OpenAPI document
const SwaggerDocPath = "/swagger/doc.json"

// RegisterSwaggerRoutes registers the Swagger document route
func RegisterSwaggerRoutes(app *fiber.App) {
	app.Get(SwaggerDocPath, func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.Type("json").Send([]byte(doc))
	})
}
