package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/homy/homyadmin/bus"
	"github.com/homy/homyadmin/config"
	"github.com/homy/homyadmin/homy"
	"github.com/homy/homyadmin/kv"
	"github.com/homy/homyadmin/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream is a fake of the marketplace API.
type upstream struct {
	mu       sync.Mutex
	assigned map[string]string
	planHits atomic.Int32
	failPlan atomic.Bool
	auths    []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.auths = append(u.auths, r.Header.Get("Authorization"))
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")

	switch {
	case r.Method == http.MethodPost && path == "/admin/login":
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"message":"invalid credentials"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":{"token":"tok"}}`)

	case r.Method == http.MethodGet && path == "/admin/orders":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		const total = 23
		var orders []map[string]any
		for i := (page - 1) * limit; i < min(page*limit, total); i++ {
			id := fmt.Sprintf("o%02d", i)
			o := map[string]any{
				"_id":       id,
				"status":    "confirmed",
				"user":      map[string]any{"firstName": fmt.Sprintf("User%02d", i), "lastName": "X"},
				"createdAt": time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			}
			u.mu.Lock()
			if chef, ok := u.assigned[id]; ok {
				o["chef"] = map[string]any{"name": chef}
			}
			u.mu.Unlock()
			orders = append(orders, o)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"orders": orders, "totalPages": (total + limit - 1) / limit, "totalOrders": total},
		})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/assign-chef"):
		var req struct {
			ChefID string `json:"chefId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		id := strings.Split(path, "/")[3]
		u.mu.Lock()
		u.assigned[id] = req.ChefID
		u.mu.Unlock()
		fmt.Fprint(w, `{"success":true}`)

	case r.Method == http.MethodGet && path == "/plans/get":
		u.planHits.Add(1)
		if u.failPlan.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"success":false,"message":"boom"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":[
			{"_id":"p1","type":"Premium","morningPrice":300},
			{"_id":"p2","type":"Basic","morningPrice":100},
			{"_id":"p3","type":"Family","morningPrice":500}]}`)

	case r.Method == http.MethodGet && path == "/admin/dashboard":
		fmt.Fprint(w, `{"success":true,"data":{"totalUsers":3,"totalRevenue":99.5,"totalOrders":23,"totalChefs":1}}`)

	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"message":"not found"}`)
	}
}

func setupTestServer(t *testing.T) (*echo.Echo, *server, *upstream) {
	store, err := kv.NewMemPebble()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bs, err := bus.NewSolo()
	if err != nil {
		t.Fatalf("Failed to create test bus: %v", err)
	}
	t.Cleanup(func() { bs.Close() })

	up := &upstream{assigned: map[string]string{}}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	sess, err := session.Open(ctx, store)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.APIURL = srv.URL + "/api/v1"
	cfg.PageSize = 5

	client := homy.New(cfg.APIURL, sess, homy.WithTimeout(5*time.Second), homy.WithLogger(log))

	s, err := newServer(cfg, store, bs, sess, client, log)
	require.NoError(t, err)
	t.Cleanup(s.close)

	return s.routes(), s, up
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type orderView struct {
	Name string `json:"name"`
	View struct {
		Items []struct {
			ID   string `json:"_id"`
			Chef *struct {
				Name string `json:"name"`
			} `json:"chef"`
		} `json:"items"`
		Query       string `json:"query"`
		CurrentPage int    `json:"currentPage"`
		TotalPages  int    `json:"totalPages"`
		TotalCount  int    `json:"totalCount"`
		PageSize    int    `json:"pageSize"`
		Mode        string `json:"mode"`
		Sort        struct {
			Field     string `json:"field"`
			Direction string `json:"direction"`
		} `json:"sort"`
	} `json:"view"`
	Error string `json:"error"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) orderView {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func login(t *testing.T, e *echo.Echo) {
	t.Helper()
	rec := do(e, http.MethodPost, "/login", `{"email":"admin@homy.in","password":"secret"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestLoginRequired(t *testing.T) {
	e, _, _ := setupTestServer(t)

	rec := do(e, http.MethodGet, "/views/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/login", `{"email":"admin@homy.in","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")

	rec = do(e, http.MethodPost, "/login", `{"email":"admin@homy.in"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	login(t, e)
	rec = do(e, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalOrders":23`)

	rec = do(e, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServerPagedView(t *testing.T) {
	e, _, up := setupTestServer(t)
	login(t, e)

	v := decodeView(t, do(e, http.MethodGet, "/views/orders", ""))
	assert.Equal(t, "orders", v.Name)
	assert.Equal(t, "server", v.View.Mode)
	assert.Equal(t, 5, v.View.TotalPages)
	assert.Equal(t, 23, v.View.TotalCount)
	require.Len(t, v.View.Items, 5)
	// newest first within the fetched page
	assert.Equal(t, "o04", v.View.Items[0].ID)

	v = decodeView(t, do(e, http.MethodGet, "/views/orders?page=5", ""))
	assert.Equal(t, 5, v.View.CurrentPage)
	require.Len(t, v.View.Items, 3)
	assert.Equal(t, "o22", v.View.Items[0].ID)

	v = decodeView(t, do(e, http.MethodGet, "/views/orders?size=10", ""))
	assert.Equal(t, 1, v.View.CurrentPage)
	assert.Equal(t, 3, v.View.TotalPages)
	assert.Len(t, v.View.Items, 10)

	// query filters the fetched page only
	v = decodeView(t, do(e, http.MethodGet, "/views/orders?q=user03", ""))
	require.Len(t, v.View.Items, 1)
	assert.Equal(t, "o03", v.View.Items[0].ID)

	for _, a := range up.auths {
		if a != "" {
			assert.Equal(t, "Bearer tok", a)
		}
	}
}

func TestActionRefreshesView(t *testing.T) {
	e, _, _ := setupTestServer(t)
	login(t, e)

	v := decodeView(t, do(e, http.MethodGet, "/views/orders", ""))
	require.Nil(t, v.View.Items[0].Chef)

	rec := do(e, http.MethodPost, "/orders/o04/assign-chef", `{"chefId":"Ravi"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/orders/o04/assign-chef", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Eventually(t, func() bool {
		v := decodeView(t, do(e, http.MethodGet, "/views/orders", ""))
		return v.View.Items[0].Chef != nil && v.View.Items[0].Chef.Name == "Ravi"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLocalViewSortToggleAndPrefs(t *testing.T) {
	e, s, _ := setupTestServer(t)
	login(t, e)

	type planView struct {
		View struct {
			Items []struct {
				Type string `json:"type"`
			} `json:"items"`
			Sort struct {
				Field     string `json:"field"`
				Direction string `json:"direction"`
			} `json:"sort"`
			PageSize int `json:"pageSize"`
		} `json:"view"`
	}
	get := func(target string) planView {
		rec := do(e, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v planView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		return v
	}
	types := func(v planView) []string {
		var out []string
		for _, it := range v.View.Items {
			out = append(out, it.Type)
		}
		return out
	}

	v := get("/views/plans")
	assert.Equal(t, []string{"Basic", "Family", "Premium"}, types(v))

	v = get("/views/plans?sort=type")
	assert.Equal(t, []string{"Premium", "Family", "Basic"}, types(v))
	assert.Equal(t, "desc", v.View.Sort.Direction)

	v = get("/views/plans?sort=morningPrice:asc&size=2")
	assert.Equal(t, []string{"Basic", "Premium"}, types(v))

	rec := do(e, http.MethodGet, "/views/plans?sort=type:sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// teardown keeps the saved preferences
	rec = do(e, http.MethodDelete, "/views/plans", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	st, ok, err := session.LoadPrefs(context.Background(), s.kv, "plans")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, st.PageSize)

	v = get("/views/plans")
	assert.Equal(t, 2, v.View.PageSize)
	assert.Equal(t, "morningPrice", v.View.Sort.Field)
}

func TestViewKeepsLastGoodDataOnFailure(t *testing.T) {
	e, _, up := setupTestServer(t)
	login(t, e)

	v := decodeView(t, do(e, http.MethodGet, "/views/plans", ""))
	require.Empty(t, v.Error)

	up.failPlan.Store(true)
	rec := do(e, http.MethodPost, "/views/plans/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(e, http.MethodGet, "/views/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		View struct {
			TotalCount int `json:"totalCount"`
		} `json:"view"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.View.TotalCount)
	assert.Contains(t, body.Error, "boom")
}

func TestUnknownView(t *testing.T) {
	e, _, _ := setupTestServer(t)
	login(t, e)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/views/recipes", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/views/recipes", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/views/plans?page=two", "").Code)
}

func TestHealthz(t *testing.T) {
	_, s, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	s.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
