package polls

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/internal/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service, *fakeUsers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	users := newFakeUsers()
	svc := NewService(store, users, nil, zap.NewNop())
	h := NewHandler(svc, nil, zap.NewNop())

	router := gin.New()
	router.GET("/votacion", h.List)
	router.POST("/votacion", h.Create)
	router.POST("/votacion/:id/votar", h.Vote)
	router.GET("/votacion/:id/mi-voto/:usuarioId", h.MyVote)
	router.PATCH("/votacion/:id/cerrar", h.Close)
	router.PATCH("/votacion/:id/publicar", h.Publish)
	return router, svc, users
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/votacion", gin.H{"titulo": "Elección CEE", "opciones": []string{"A"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400. Body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Error("validation envelope must carry success=false")
	}

	w = doJSON(router, http.MethodPost, "/votacion", gin.H{"titulo": "Elección CEE", "opciones": []string{"A", "B"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201. Body: %s", w.Code, w.Body.String())
	}
}

func TestVoteEndpointDuplicateIs409(t *testing.T) {
	router, svc, users := newTestRouter(t)
	p := createPoll(t, svc, "Elección CEE", "A", "B")
	voter := addVoter(users, "maria")

	vote := gin.H{"usuarioId": voter.String(), "opcionId": p.Options[0].ID.String()}

	w := doJSON(router, http.MethodPost, "/votacion/"+p.ID.String()+"/votar", vote)
	if w.Code != http.StatusCreated {
		t.Fatalf("first vote status = %d, want 201. Body: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodPost, "/votacion/"+p.ID.String()+"/votar", vote)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate vote status = %d, want 409. Body: %s", w.Code, w.Body.String())
	}
	var envelope struct {
		State      string `json:"state"`
		StatusCode int    `json:"statusCode"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.State != "Error" || envelope.StatusCode != http.StatusConflict {
		t.Errorf("error envelope = %+v, want state Error and statusCode 409", envelope)
	}
}

func TestVoteEndpointWrongPollOptionIs403(t *testing.T) {
	router, svc, users := newTestRouter(t)
	p := createPoll(t, svc, "Elección CEE", "A", "B")
	other := createPoll(t, svc, "Otra", "X", "Y")
	voter := addVoter(users, "jose")

	w := doJSON(router, http.MethodPost, "/votacion/"+p.ID.String()+"/votar",
		gin.H{"usuarioId": voter.String(), "opcionId": other.Options[0].ID.String()})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403. Body: %s", w.Code, w.Body.String())
	}
}

func TestVoteEndpointMissingEntitiesAre404(t *testing.T) {
	router, svc, users := newTestRouter(t)
	p := createPoll(t, svc, "Elección CEE", "A", "B")
	voter := addVoter(users, "ana")

	w := doJSON(router, http.MethodPost, "/votacion/"+uuid.NewString()+"/votar",
		gin.H{"usuarioId": voter.String(), "opcionId": p.Options[0].ID.String()})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing poll status = %d, want 404", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/votacion/"+p.ID.String()+"/votar",
		gin.H{"usuarioId": uuid.NewString(), "opcionId": p.Options[0].ID.String()})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing user status = %d, want 404", w.Code)
	}
}

func TestMyVoteEndpoint(t *testing.T) {
	router, svc, users := newTestRouter(t)
	p := createPoll(t, svc, "Mi voto", "A", "B")
	voter := addVoter(users, "lucia")

	w := doJSON(router, http.MethodGet, "/votacion/"+p.ID.String()+"/mi-voto/"+voter.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var before struct {
		YaVoto bool `json:"yaVoto"`
	}
	if err := json.NewDecoder(w.Body).Decode(&before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.YaVoto {
		t.Error("yaVoto = true before voting")
	}

	doJSON(router, http.MethodPost, "/votacion/"+p.ID.String()+"/votar",
		gin.H{"usuarioId": voter.String(), "opcionId": p.Options[0].ID.String()})

	w = doJSON(router, http.MethodGet, "/votacion/"+p.ID.String()+"/mi-voto/"+voter.String(), nil)
	var after struct {
		YaVoto    bool    `json:"yaVoto"`
		FechaVoto *string `json:"fechaVoto"`
	}
	if err := json.NewDecoder(w.Body).Decode(&after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !after.YaVoto || after.FechaVoto == nil {
		t.Errorf("after vote = %+v, want yaVoto with fechaVoto", after)
	}
}

func TestListEndpointClampsLimit(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	createPoll(t, svc, "Lista", "A", "B")

	w := doJSON(router, http.MethodGet, "/votacion?page=0&limit=999", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Data       []models.Poll `json:"data"`
		Pagination struct {
			CurrentPage  int `json:"currentPage"`
			ItemsPerPage int `json:"itemsPerPage"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Pagination.ItemsPerPage != MaxPollPageSize {
		t.Errorf("itemsPerPage = %d, want %d", body.Pagination.ItemsPerPage, MaxPollPageSize)
	}
	if body.Pagination.CurrentPage != 1 {
		t.Errorf("currentPage = %d, want 1", body.Pagination.CurrentPage)
	}
	if len(body.Data) != 1 {
		t.Errorf("data length = %d, want 1", len(body.Data))
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	p := createPoll(t, svc, "Ciclo", "A", "B")
	base := "/votacion/" + p.ID.String()

	if w := doJSON(router, http.MethodPatch, base+"/publicar", nil); w.Code != http.StatusBadRequest {
		t.Errorf("publish before close status = %d, want 400", w.Code)
	}
	if w := doJSON(router, http.MethodPatch, base+"/cerrar", nil); w.Code != http.StatusOK {
		t.Errorf("close status = %d, want 200", w.Code)
	}
	if w := doJSON(router, http.MethodPatch, base+"/cerrar", nil); w.Code != http.StatusBadRequest {
		t.Errorf("second close status = %d, want 400", w.Code)
	}
	if w := doJSON(router, http.MethodPatch, base+"/publicar", nil); w.Code != http.StatusOK {
		t.Errorf("publish status = %d, want 200", w.Code)
	}
	if w := doJSON(router, http.MethodPatch, base+"/publicar", nil); w.Code != http.StatusConflict {
		t.Errorf("second publish status = %d, want 409", w.Code)
	}
}
