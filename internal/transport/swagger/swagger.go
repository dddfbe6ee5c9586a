package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const SpecRoute = "/openapi.yml"

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(SpecRoute),
	)
}
