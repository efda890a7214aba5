package http

import (
	"log"
	"net/http"
	"os"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

const DefaultSwaggerSpec = "docs/swagger.yaml"

// RegisterSwagger serves the YAML spec at specPath as JSON under
// /swagger/doc.json and the UI under /swagger. The spec is converted once;
// a missing or broken file leaves the UI up with an unavailable doc.json.
func RegisterSwagger(e *echo.Echo, specPath string) {
	if specPath == "" {
		specPath = DefaultSwaggerSpec
	}
	jsonSpec, err := loadSwaggerSpec(specPath)
	if err != nil {
		log.Printf("swagger disabled: %v", err)
	}

	e.GET("/swagger/doc.json", func(c echo.Context) error {
		if jsonSpec == nil {
			return c.JSON(http.StatusServiceUnavailable, util.ErrorCode("swagger spec unavailable", "unavailable"))
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, jsonSpec)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

func loadSwaggerSpec(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return yaml.YAMLToJSON(data)
}
