package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/kvlens/database"
	"github.com/fulldump/kvlens/service"
)

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		db := database.NewDatabase(&database.Config{
			Dir: t.TempDir(),
		})

		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), database.StatusOperating)

		s := service.NewService(service.NewEmbeddedBackend(db), "")

		b := Build(s, "test", "", "")
		b.WithInterceptors(
			InterceptorUnavailable(s),
			RecoverFromPanic,
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})

	})
}

func TestUnavailable(t *testing.T) {

	db := database.NewDatabase(&database.Config{
		Storage: database.StorageMemory,
	})
	s := service.NewService(service.NewEmbeddedBackend(db), "")

	b := Build(s, "test", "", "")
	b.WithInterceptors(
		PrettyErrorInterceptor,
		InterceptorUnavailable(s),
	)

	api := apitest.NewWithHandler(b)

	resp := api.Request("GET", "/v1/stores").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusInternalServerError)
	biff.AssertEqualJson(resp.BodyJson(), map[string]any{
		"error": map[string]any{
			"message":     "temporary unavailable: opening",
			"description": "Unexpected error",
		},
	})

	biff.AssertNil(db.Load())
	resp = api.Request("GET", "/v1/stores").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
}

func TestRelease(t *testing.T) {

	db := database.NewDatabase(&database.Config{Storage: database.StorageMemory})
	b := Build(service.NewService(service.NewEmbeddedBackend(db), ""), "v1.2.3", "", "")

	api := apitest.NewWithHandler(b)

	resp := api.Request("GET", "/release").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqual(resp.BodyJson(), "v1.2.3")
}
