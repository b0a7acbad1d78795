package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"tablereserve/pkg/auth"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockRestaurantService struct {
	created *model.Restaurant
}

func (m *mockRestaurantService) Create(ctx context.Context, r *model.Restaurant) error {
	r.ID = "000000000000000000000001"
	m.created = r
	return nil
}

func (m *mockRestaurantService) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if id == "missing" {
		return nil, apperrors.NotFoundWithID("restaurant", id)
	}
	return &model.Restaurant{ID: id, Name: "Baan Suan"}, nil
}

func (m *mockRestaurantService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Restaurant, int64, error) {
	return []*model.Restaurant{{ID: "1"}, {ID: "2"}}, 7, nil
}

func (m *mockRestaurantService) Update(ctx context.Context, id string, updates *model.RestaurantUpdate) (*model.Restaurant, error) {
	return &model.Restaurant{ID: id}, nil
}

func (m *mockRestaurantService) Delete(ctx context.Context, id string) (int64, error) {
	return 0, nil
}

func serve(method, path, body string, id *auth.Identity) (*httptest.ResponseRecorder, *mockRestaurantService) {
	svc := &mockRestaurantService{}
	router := httprouter.New()
	NewRestaurantHandler(svc, logger.Discard()).RegisterRoutes(router)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, svc
}

func TestRoutes_AccessControl(t *testing.T) {
	user := &auth.Identity{UserID: "u1", Role: auth.RoleUser}
	admin := &auth.Identity{UserID: "a1", Role: auth.RoleAdmin}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		id         *auth.Identity
		wantStatus int
	}{
		{name: "public list", method: http.MethodGet, path: "/api/v1/restaurants", wantStatus: http.StatusOK},
		{name: "public get", method: http.MethodGet, path: "/api/v1/restaurants/id/abc", wantStatus: http.StatusOK},
		{name: "get missing", method: http.MethodGet, path: "/api/v1/restaurants/id/missing", wantStatus: http.StatusNotFound},
		{name: "create anonymous", method: http.MethodPost, path: "/api/v1/restaurants", body: `{"name":"x"}`, wantStatus: http.StatusUnauthorized},
		{name: "create as user", method: http.MethodPost, path: "/api/v1/restaurants", body: `{"name":"x"}`, id: user, wantStatus: http.StatusForbidden},
		{name: "create as admin", method: http.MethodPost, path: "/api/v1/restaurants", body: `{"name":"x"}`, id: admin, wantStatus: http.StatusCreated},
		{name: "update as user", method: http.MethodPut, path: "/api/v1/restaurants/id/abc", body: `{}`, id: user, wantStatus: http.StatusForbidden},
		{name: "delete as admin", method: http.MethodDelete, path: "/api/v1/restaurants/id/abc", id: admin, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := serve(tt.method, tt.path, tt.body, tt.id)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestGetAll_Envelope(t *testing.T) {
	w, _ := serve(http.MethodGet, "/api/v1/restaurants", "", nil)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["success"] != true || body["count"] != float64(7) {
		t.Errorf("body = %v", body)
	}
}

func TestCreate_IgnoresClientID(t *testing.T) {
	admin := &auth.Identity{UserID: "a1", Role: auth.RoleAdmin}
	_, svc := serve(http.MethodPost, "/api/v1/restaurants", `{"id":"forged","name":"Baan Suan"}`, admin)

	if svc.created == nil || svc.created.ID != "000000000000000000000001" || svc.created.Name != "Baan Suan" {
		t.Errorf("created = %+v", svc.created)
	}
}
