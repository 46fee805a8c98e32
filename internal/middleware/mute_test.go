package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/internal/models"
)

type fakeMuteChecker struct {
	sanction *models.MuteSanction
	err      error
	calls    int
}

func (f *fakeMuteChecker) ActiveSanction(ctx context.Context, userID uuid.UUID) (*models.MuteSanction, error) {
	f.calls++
	return f.sanction, f.err
}

func TestCheckMuteBlocksWithLocalizedMessage(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()
	u := studentUser()
	users.add(u)

	endsAt := time.Date(2026, 9, 15, 18, 30, 0, 0, time.Local)
	checker := &fakeMuteChecker{sanction: &models.MuteSanction{
		UserID: u.ID,
		Reason: "lenguaje ofensivo",
		EndsAt: endsAt,
		Active: true,
	}}

	router := authRouter(jwtService, users, CheckMute(checker))
	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtService, u))
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403. Body: %s", w.Code, w.Body.String())
	}

	var body struct {
		State   string `json:"state"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := fmt.Sprintf("Estás silenciado hasta el %s", endsAt.Format("02/01/2006 15:04"))
	if body.Message != want {
		t.Errorf("message = %q, want %q", body.Message, want)
	}
	if body.Details != "lenguaje ofensivo" {
		t.Errorf("details = %q, want the sanction reason", body.Details)
	}
}

func TestCheckMuteLetsUnsanctionedUsersThrough(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()
	u := studentUser()
	users.add(u)

	checker := &fakeMuteChecker{}
	router := authRouter(jwtService, users, CheckMute(checker))
	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtService, u))
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if checker.calls != 1 {
		t.Errorf("checker calls = %d, want 1", checker.calls)
	}
}

func TestCheckMuteFailsClosedOnCheckerError(t *testing.T) {
	jwtService := auth.NewJWTService("secreto", 1)
	users := newFakeUsers()
	u := studentUser()
	users.add(u)

	checker := &fakeMuteChecker{err: context.DeadlineExceeded}
	router := authRouter(jwtService, users, CheckMute(checker))
	w := request(router, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtService, u))
	})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
