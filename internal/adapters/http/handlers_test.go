package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/placepicker/internal/adapters/http"
	"github.com/samirrijal/placepicker/internal/adapters/memory"
	"github.com/samirrijal/placepicker/internal/adapters/position"
	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/core/usecases"
)

// ---- Test helpers ----

func testCatalog() []domain.Place {
	return []domain.Place{
		{ID: "p1", Name: "Forest Waterfall", ImageSrc: "forest.jpg", Coordinate: domain.Coordinate{Lat: 0, Lon: 0.10}},
		{ID: "p2", Name: "Sahara Desert Dunes", ImageSrc: "dunes.jpg", Coordinate: domain.Coordinate{Lat: 0, Lon: 0.05}},
		{ID: "p3", Name: "Majestic Mountains", ImageSrc: "mountains.jpg", Coordinate: domain.Coordinate{Lat: 0, Lon: 1.00}},
	}
}

type testEnv struct {
	app    *fiber.App
	places *usecases.SelectionController
	sensor *position.OneShot
	kv     *memory.Store
}

func setupEnv(t *testing.T, stored string) *testEnv {
	t.Helper()
	kv := memory.New()
	if stored != "" {
		_ = kv.Set(context.Background(), usecases.DefaultSelectionKey, stored)
	}
	store := usecases.NewSelectionStore(kv, usecases.DefaultSelectionKey)
	places := usecases.NewSelectionController(context.Background(), testCatalog(), store, nil)
	sensor := position.NewOneShot()
	places.Start(context.Background(), sensor)

	deps := &handler.Dependencies{
		Places:   places,
		Position: sensor,
		Storage:  kv,
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return &testEnv{app: app, places: places, sensor: sensor, kv: kv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func placeIDs(places []domain.Place) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.ID
	}
	return out
}

func waitSettled(t *testing.T, places *usecases.SelectionController) {
	t.Helper()
	select {
	case <-places.Settled():
	case <-time.After(2 * time.Second):
		t.Fatal("position did not settle")
	}
}

// ---- Catalog ----

func TestListPlaces_Pagination(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "GET", "/v1/places?offset=1&limit=1", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %q", link)
	}

	var result struct {
		Data       []domain.Place `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	decode(t, resp, &result)
	if result.Pagination.Total != 3 || result.Pagination.Offset != 1 {
		t.Errorf("unexpected pagination %+v", result.Pagination)
	}
	if len(result.Data) != 1 || result.Data[0].ID != "p2" {
		t.Errorf("expected [p2], got %v", placeIDs(result.Data))
	}
}

func TestGetPlace(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "GET", "/v1/places/p3", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var p domain.Place
	decode(t, resp, &p)
	if p.Name != "Majestic Mountains" {
		t.Errorf("expected Majestic Mountains, got %s", p.Name)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("expected catalog to be cacheable, got %q", cc)
	}
}

func TestGetPlace_NotFound(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "GET", "/v1/places/p99", "")
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var apiErr handler.APIError
	decode(t, resp, &apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

// ---- Available places ----

func TestAvailable_AwaitingPosition(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "GET", "/v1/places/available", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}
	var body handler.AvailableResponse
	decode(t, resp, &body)
	if body.Status != "awaiting_position" || body.Message == "" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Places == nil || len(body.Places) != 0 {
		t.Errorf("expected empty places array, got %v", body.Places)
	}
}

func TestReportPosition_RanksPlaces(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "POST", "/v1/position", `{"lat":0,"lon":0}`)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	waitSettled(t, env.places)

	var body handler.AvailableResponse
	decode(t, env.do(t, "GET", "/v1/places/available", ""), &body)
	if body.Status != "resolved" {
		t.Fatalf("expected resolved, got %s", body.Status)
	}
	got := placeIDs(body.Places)
	if strings.Join(got, ",") != "p2,p1,p3" {
		t.Errorf("expected p2,p1,p3, got %v", got)
	}
	if body.Places[0].Distance == nil {
		t.Error("expected ranked places to carry a distance")
	}
}

func TestReportPosition_OnlyOnce(t *testing.T) {
	env := setupEnv(t, "")

	if resp := env.do(t, "POST", "/v1/position", `{"lat":10,"lon":10}`); resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if resp := env.do(t, "POST", "/v1/position", `{"lat":0,"lon":0}`); resp.StatusCode != 409 {
		t.Fatalf("expected 409 on second report, got %d", resp.StatusCode)
	}
}

func TestReportPosition_Invalid(t *testing.T) {
	env := setupEnv(t, "")

	cases := []string{`{"lat":95,"lon":0}`, `{"lat":1}`, `not json`}
	for _, body := range cases {
		if resp := env.do(t, "POST", "/v1/position", body); resp.StatusCode != 400 {
			t.Errorf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if env.sensor.Settled() {
		t.Error("invalid reports must not settle the sensor")
	}
}

func TestReportPosition_Denied(t *testing.T) {
	env := setupEnv(t, "")

	if resp := env.do(t, "POST", "/v1/position", `{"error":"permission denied"}`); resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	waitSettled(t, env.places)

	var body handler.AvailableResponse
	decode(t, env.do(t, "GET", "/v1/places/available", ""), &body)
	if body.Status != "awaiting_position" {
		t.Errorf("expected awaiting_position after denial, got %s", body.Status)
	}
}

// ---- Selection ----

func TestPick_PersistsAndIsIdempotent(t *testing.T) {
	env := setupEnv(t, "")

	for i := 0; i < 2; i++ {
		resp := env.do(t, "POST", "/v1/places/p2/pick", "")
		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	}

	var picked []domain.Place
	decode(t, env.do(t, "GET", "/v1/places/picked", ""), &picked)
	if len(picked) != 1 || picked[0].ID != "p2" {
		t.Errorf("expected [p2], got %v", placeIDs(picked))
	}

	stored, _, _ := env.kv.Get(context.Background(), usecases.DefaultSelectionKey)
	if stored != `["p2"]` {
		t.Errorf("expected stored [\"p2\"], got %s", stored)
	}
}

func TestPick_UnknownPlace(t *testing.T) {
	env := setupEnv(t, "")

	if resp := env.do(t, "POST", "/v1/places/p99/pick", ""); resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRemoval_CancelThenConfirm(t *testing.T) {
	env := setupEnv(t, `["p2","p1"]`)

	resp := env.do(t, "POST", "/v1/places/p2/removal", "")
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var sel handler.SelectionResponse
	decode(t, resp, &sel)
	if !sel.Removal.Armed || sel.Removal.TargetID != "p2" {
		t.Fatalf("expected armed with p2, got %+v", sel.Removal)
	}

	decode(t, env.do(t, "POST", "/v1/removal/cancel", ""), &sel)
	if sel.Removal.Armed || strings.Join(placeIDs(sel.Picked), ",") != "p2,p1" {
		t.Fatalf("cancel should keep p2, got %+v", sel)
	}

	env.do(t, "POST", "/v1/places/p2/removal", "")
	decode(t, env.do(t, "POST", "/v1/removal/confirm", ""), &sel)
	if sel.Removal.Armed || strings.Join(placeIDs(sel.Picked), ",") != "p1" {
		t.Fatalf("confirm should remove p2, got %+v", sel)
	}

	stored, _, _ := env.kv.Get(context.Background(), usecases.DefaultSelectionKey)
	if stored != `["p1"]` {
		t.Errorf("expected stored [\"p1\"], got %s", stored)
	}
}

func TestRemoval_ConfirmWithoutRequest(t *testing.T) {
	env := setupEnv(t, `["p1"]`)

	var sel handler.SelectionResponse
	decode(t, env.do(t, "POST", "/v1/removal/confirm", ""), &sel)
	if len(sel.Picked) != 1 {
		t.Errorf("confirm with nothing pending must be a no-op, got %v", placeIDs(sel.Picked))
	}
}

func TestRemovalState(t *testing.T) {
	env := setupEnv(t, `["p1"]`)
	env.do(t, "POST", "/v1/places/p1/removal", "")

	var st domain.RemovalState
	decode(t, env.do(t, "GET", "/v1/removal", ""), &st)
	if !st.Armed || st.TargetID != "p1" {
		t.Errorf("expected armed p1, got %+v", st)
	}
}

func TestView_StaleIDsDropped(t *testing.T) {
	env := setupEnv(t, `["p1","p99"]`)

	var view handler.ViewResponse
	decode(t, env.do(t, "GET", "/v1/view", ""), &view)
	if view.Title != "PlacePicker" {
		t.Errorf("unexpected title %q", view.Title)
	}
	if strings.Join(placeIDs(view.Picked.Places), ",") != "p1" {
		t.Errorf("expected only p1 picked, got %v", placeIDs(view.Picked.Places))
	}
	if view.Available.Status != "awaiting_position" || view.Available.Title != "Available Places" {
		t.Errorf("unexpected available section %+v", view.Available)
	}
}

func TestPickedGeoJSON(t *testing.T) {
	env := setupEnv(t, `["p3"]`)

	resp := env.do(t, "GET", "/v1/places/picked.geojson", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	decode(t, resp, &fc)
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	f := fc.Features[0]
	if f.ID != "p3" || f.Geometry.Coordinates[0] != 1.0 || f.Geometry.Coordinates[1] != 0 {
		t.Errorf("expected p3 at [lon=1, lat=0], got %+v", f)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "GET", "/v1/health", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Places   int    `json:"places"`
		Position string `json:"position"`
	}
	decode(t, resp, &body)
	if body.Places != 3 || body.Position != "awaiting_position" {
		t.Errorf("unexpected health body %+v", body)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestReady_StorageDown(t *testing.T) {
	env := setupEnv(t, "")
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, &handler.Dependencies{Places: env.places, Storage: failingPinger{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if body.Checks["storage"] != "error: connection refused" {
		t.Errorf("unexpected storage check %q", body.Checks["storage"])
	}
}

func TestReady_StorageOK(t *testing.T) {
	env := setupEnv(t, "")

	resp := env.do(t, "GET", "/v1/ready", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if body.Checks["storage"] != "ok" || body.Checks["nats"] != "not configured" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}

// ---- GraphQL ----

func graphQL(t *testing.T, env *testEnv, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	resp := env.do(t, "POST", "/graphql", string(payload))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Data   map[string]any `json:"data"`
		Errors []any          `json:"errors"`
	}
	decode(t, resp, &out)
	if len(out.Errors) > 0 {
		t.Fatalf("graphql errors: %v", out.Errors)
	}
	return out.Data
}

func TestGraphQL_PickAndRemove(t *testing.T) {
	env := setupEnv(t, "")

	data := graphQL(t, env, `mutation { pick(id: "p1") { picked { id name } } }`)
	picked := data["pick"].(map[string]any)["picked"].([]any)
	if len(picked) != 1 || picked[0].(map[string]any)["id"] != "p1" {
		t.Fatalf("unexpected pick result %v", data)
	}

	graphQL(t, env, `mutation { requestRemoval(id: "p1") { removal { armed target_id } } }`)
	data = graphQL(t, env, `query { removal { armed target_id } }`)
	if data["removal"].(map[string]any)["target_id"] != "p1" {
		t.Fatalf("expected p1 pending, got %v", data)
	}

	data = graphQL(t, env, `mutation { confirmRemoval { picked { id } removal { armed } } }`)
	res := data["confirmRemoval"].(map[string]any)
	if len(res["picked"].([]any)) != 0 || res["removal"].(map[string]any)["armed"] != false {
		t.Errorf("unexpected confirm result %v", res)
	}
}

func TestGraphQL_AvailableAwaiting(t *testing.T) {
	env := setupEnv(t, "")

	data := graphQL(t, env, `{ available { status places { id } } places { id } }`)
	av := data["available"].(map[string]any)
	if av["status"] != "awaiting_position" {
		t.Errorf("expected awaiting_position, got %v", av["status"])
	}
	if len(data["places"].([]any)) != 3 {
		t.Errorf("expected 3 catalog places, got %v", data["places"])
	}
}

func TestETag_NotModified(t *testing.T) {
	env := setupEnv(t, "")

	first := env.do(t, "GET", "/v1/places/p1", "")
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/places/p1", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}
