package handlers

import (
	"context"
	"net/http"
	"testing"

	"mecanica_oficina/internal/adapter/http/dto/request"
	"mecanica_oficina/internal/adapter/http/handlers/mocks"
	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func newCatalogRouter(t *testing.T) (*gin.Engine, *mocks.MockICatalogUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	request.RegisterValidators()
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockICatalogUseCase(ctrl)
	h := NewCatalogHandler(uc)

	r := gin.New()
	r.POST("/v1/clients", h.CreateClient)
	r.GET("/v1/clients/:id", h.GetClient)
	r.PATCH("/v1/clients/:id", h.UpdateClient)
	r.GET("/v1/clients/:id/vehicles", h.ListClientVehicles)
	r.POST("/v1/vehicles", h.CreateVehicle)
	r.GET("/v1/vehicles/:id", h.GetVehicle)
	r.PATCH("/v1/vehicles/:id", h.UpdateVehicle)
	return r, uc
}

func TestCatalogHandler_Clients(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().CreateClient(gomock.Any(), entities.Client{Name: "Ana Ferreira", NIF: "123456789", Phone: "912345678"}).
			Return(entities.Client{ID: "c-1", Name: "Ana Ferreira", NIF: "123456789"}, nil)

		w := serve(r, http.MethodPost, "/v1/clients", `{"name":"Ana Ferreira","nif":"123456789","phone":"912345678"}`, nil)
		if w.Code != http.StatusCreated || decode(t, w)["id"] != "c-1" {
			t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("duplicate nif", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().CreateClient(gomock.Any(), gomock.Any()).Return(entities.Client{}, entities.ErrDuplicateClient)

		w := serve(r, http.MethodPost, "/v1/clients", `{"name":"Ana","nif":"123456789","phone":"912345678"}`, nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("invalid nif", func(t *testing.T) {
		r, _ := newCatalogRouter(t)
		w := serve(r, http.MethodPost, "/v1/clients", `{"name":"Ana","nif":"12AB","phone":"912345678"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("update only sent fields", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().UpdateClient(gomock.Any(), "c-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, changes usecase.ClientChanges) (entities.Client, error) {
				if changes.Phone == nil || *changes.Phone != "934567890" || changes.Name != nil || changes.Address != nil {
					t.Fatalf("unexpected changes %+v", changes)
				}
				return entities.Client{ID: "c-1", Phone: "934567890"}, nil
			})

		if w := serve(r, http.MethodPatch, "/v1/clients/c-1", `{"phone":"934567890"}`, nil); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().GetClient(gomock.Any(), "missing").Return(entities.Client{}, usecase.ErrClientNotFound)

		if w := serve(r, http.MethodGet, "/v1/clients/missing", "", nil); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestCatalogHandler_Vehicles(t *testing.T) {
	const body = `{"clientId":"c-1","licensePlate":"AA-00-BB","brand":"Renault","model":"Clio","kilometers":120000,"vin":"VF1RFB00000000001"}`

	t.Run("create", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().CreateVehicle(gomock.Any(), gomock.Any()).Return(entities.Vehicle{ID: "v-1", LicensePlate: "AA-00-BB"}, nil)

		if w := serve(r, http.MethodPost, "/v1/vehicles", body, nil); w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("client missing", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().CreateVehicle(gomock.Any(), gomock.Any()).Return(entities.Vehicle{}, usecase.ErrClientNotFound)

		if w := serve(r, http.MethodPost, "/v1/vehicles", body, nil); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("kilometers required", func(t *testing.T) {
		r, _ := newCatalogRouter(t)
		if w := serve(r, http.MethodPatch, "/v1/vehicles/v-1", `{}`, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("kilometers going back", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().UpdateVehicleKilometers(gomock.Any(), "v-1", 1000).Return(entities.Vehicle{}, &entities.ValidationError{Field: "kilometers", Reason: "cannot decrease"})

		if w := serve(r, http.MethodPatch, "/v1/vehicles/v-1", `{"kilometers":1000}`, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("list by client", func(t *testing.T) {
		r, uc := newCatalogRouter(t)
		uc.EXPECT().ListVehiclesByClient(gomock.Any(), "c-1").Return([]entities.Vehicle{{ID: "v-1"}}, nil)
		uc.EXPECT().GetVehicle(gomock.Any(), "v-1").Return(entities.Vehicle{ID: "v-1"}, nil)

		if w := serve(r, http.MethodGet, "/v1/clients/c-1/vehicles", "", nil); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if w := serve(r, http.MethodGet, "/v1/vehicles/v-1", "", nil); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}
