package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &MockProfileService{CreateProfileFunc: func(_ context.Context, userID string, in services.CreateProfileInput) (*models.Lobbyist, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, []string{"Austin"}, in.Cities)
			return &models.Lobbyist{ID: "lob-1", Slug: "jane-doe", ApprovalStatus: models.ApprovalPending}, nil
		}}
		h := NewProfileHandler(svc, testLogger())
		w := httptest.NewRecorder()

		req := newTestRequest(t, http.MethodPost, "/api/profile/create", ProfileContentRequest{
			FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Cities: []string{"Austin"},
		})
		h.Create(w, withUser(req, "user-1", models.RoleSearcher))

		require.Equal(t, http.StatusCreated, w.Code)
		var profile models.Lobbyist
		decodeBody(t, w, &profile)
		assert.Equal(t, "jane-doe", profile.Slug)
	})

	t.Run("missing names", func(t *testing.T) {
		h := NewProfileHandler(&MockProfileService{}, testLogger())
		w := httptest.NewRecorder()

		req := newTestRequest(t, http.MethodPost, "/api/profile/create", ProfileContentRequest{Bio: "hi"})
		h.Create(w, withUser(req, "user-1", models.RoleSearcher))

		resp := assertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
		assert.Contains(t, resp.Fields, "first_name")
		assert.Contains(t, resp.Fields, "last_name")
	})

	t.Run("missing email", func(t *testing.T) {
		h := NewProfileHandler(&MockProfileService{}, testLogger())
		w := httptest.NewRecorder()

		req := newTestRequest(t, http.MethodPost, "/api/profile/create", ProfileContentRequest{FirstName: "Jane", LastName: "Doe"})
		h.Create(w, withUser(req, "user-1", models.RoleSearcher))

		resp := assertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
		assert.Contains(t, resp.Fields, "email")
	})

	t.Run("existing profile", func(t *testing.T) {
		svc := &MockProfileService{CreateProfileFunc: func(context.Context, string, services.CreateProfileInput) (*models.Lobbyist, error) {
			return nil, models.ErrProfileExists
		}}
		h := NewProfileHandler(svc, testLogger())
		w := httptest.NewRecorder()

		req := newTestRequest(t, http.MethodPost, "/api/profile/create", ProfileContentRequest{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"})
		h.Create(w, withUser(req, "user-1", models.RoleSearcher))

		assertErrorResponse(t, w, http.StatusConflict, "conflict")
	})

	t.Run("anonymous", func(t *testing.T) {
		h := NewProfileHandler(&MockProfileService{}, testLogger())
		w := httptest.NewRecorder()

		h.Create(w, newTestRequest(t, http.MethodPost, "/api/profile/create", ProfileContentRequest{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}))

		assertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	})
}

func TestProfileHandler_Claim(t *testing.T) {
	svc := &MockProfileService{SubmitClaimFunc: func(_ context.Context, _ string, in services.ClaimInput) (*models.ClaimRequest, error) {
		switch in.LobbyistID {
		case "taken":
			return nil, models.ErrAlreadyClaimed
		case "second-profile":
			return nil, models.ErrProfileExists
		}
		return &models.ClaimRequest{ID: "claim-1", LobbyistID: in.LobbyistID, Status: models.RequestPending}, nil
	}}
	h := NewProfileHandler(svc, testLogger())

	tests := []struct {
		lobbyistID string
		wantStatus int
	}{
		{"lob-1", http.StatusCreated},
		{"taken", http.StatusConflict},
		{"second-profile", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.lobbyistID, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := newTestRequest(t, http.MethodPost, "/api/profile/claim", ClaimRequest{
				LobbyistID: tt.lobbyistID, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
			})
			h.Claim(w, withUser(req, "user-1", models.RoleSearcher))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestProfileHandler_Resubmit_GateCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no changes", models.ErrNoChanges, http.StatusBadRequest, "no_changes"},
		{"not rejected", models.ErrNotRejected, http.StatusBadRequest, "not_rejected"},
		{"limit reached", models.ErrResubmissionLimit, http.StatusBadRequest, "resubmission_limit_reached"},
		{"cooldown", models.ErrResubmissionCooldown, http.StatusBadRequest, "resubmission_cooldown"},
		{"not owner", models.ErrForbidden, http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProfileService{ResubmitFunc: func(_ context.Context, _, lobbyistID string, _ services.CreateProfileInput) (*models.Lobbyist, error) {
				assert.Equal(t, "lob-1", lobbyistID)
				return nil, tt.err
			}}
			h := NewProfileHandler(svc, testLogger())
			w := httptest.NewRecorder()

			req := newTestRequest(t, http.MethodPost, "/api/profile/resubmit", ResubmitRequest{
				LobbyistID:            "lob-1",
				ProfileContentRequest: ProfileContentRequest{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Bio: "Updated bio"},
			})
			h.Resubmit(w, withUser(req, "user-1", models.RoleLobbyist))

			assertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestProfileHandler_Resubmit_Success(t *testing.T) {
	reason := "Resubmitted after rejection (attempt 1 of 3)"
	svc := &MockProfileService{ResubmitFunc: func(_ context.Context, _, id string, in services.CreateProfileInput) (*models.Lobbyist, error) {
		assert.Equal(t, "Updated bio", in.Bio)
		return &models.Lobbyist{ID: id, ApprovalStatus: models.ApprovalPending, PendingReason: &reason}, nil
	}}
	h := NewProfileHandler(svc, testLogger())
	w := httptest.NewRecorder()

	req := newTestRequest(t, http.MethodPost, "/api/profile/resubmit", map[string]any{
		"lobbyist_id": "lob-1", "first_name": "Jane", "last_name": "Doe", "email": "jane@example.com", "bio": "Updated bio",
	})
	h.Resubmit(w, withUser(req, "user-1", models.RoleLobbyist))

	require.Equal(t, http.StatusOK, w.Code)
	var profile models.Lobbyist
	decodeBody(t, w, &profile)
	require.NotNil(t, profile.PendingReason)
	assert.Equal(t, reason, *profile.PendingReason)
}

func TestProfileHandler_UpdateField(t *testing.T) {
	svc := &MockProfileService{UpdateFieldFunc: func(_ context.Context, _, _, field string, value any) (*models.Lobbyist, error) {
		assert.Equal(t, "cities", field)
		assert.Equal(t, []any{"Austin", "Dallas"}, value)
		return &models.Lobbyist{ID: "lob-1", Cities: []string{"Austin", "Dallas"}}, nil
	}}
	h := NewProfileHandler(svc, testLogger())
	w := httptest.NewRecorder()

	req := newTestRequest(t, http.MethodPost, "/api/profile/update-field", map[string]any{
		"lobbyist_id": "lob-1", "field": "cities", "value": []string{"Austin", "Dallas"},
	})
	h.UpdateField(w, withUser(req, "user-1", models.RoleLobbyist))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileHandler_RequestRoleUpgrade_ShortJustification(t *testing.T) {
	h := NewProfileHandler(&MockProfileService{}, testLogger())
	w := httptest.NewRecorder()

	req := newTestRequest(t, http.MethodPost, "/api/profile/role-upgrade", RoleUpgradeRequest{Justification: "I lobby.", IsRegisteredLobbyist: true})
	h.RequestRoleUpgrade(w, withUser(req, "user-1", models.RoleSearcher))

	resp := assertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
	assert.Contains(t, resp.Fields, "justification")
}

func TestProfileHandler_RequestMerge_NotRelated(t *testing.T) {
	svc := &MockProfileService{RequestMergeFunc: func(context.Context, string, services.MergeInput) (*models.MergeRequest, error) {
		return nil, models.ErrNotRelated
	}}
	h := NewProfileHandler(svc, testLogger())
	w := httptest.NewRecorder()

	req := newTestRequest(t, http.MethodPost, "/api/profile/merge-request", MergeRequest{PrimaryID: "a", DuplicateID: "b"})
	h.RequestMerge(w, withUser(req, "user-1", models.RoleLobbyist))

	assertErrorResponse(t, w, http.StatusForbidden, "forbidden")
}

func multipartRequest(t *testing.T, url, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, "upload.pdf")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProfileHandler_UploadDocument(t *testing.T) {
	pdf := []byte("%PDF-1.4 claim")

	t.Run("stored", func(t *testing.T) {
		svc := &MockProfileService{UploadDocumentFunc: func(_ context.Context, userID string, data []byte) (string, error) {
			assert.Equal(t, pdf, data)
			return "verification/" + userID + "/doc.pdf", nil
		}}
		h := NewProfileHandler(svc, testLogger())
		w := httptest.NewRecorder()

		h.UploadDocument(w, withUser(multipartRequest(t, "/api/profile/verification-document", "file", pdf), "user-1", models.RoleSearcher))

		require.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]string
		decodeBody(t, w, &resp)
		assert.Equal(t, "verification/user-1/doc.pdf", resp["key"])
	})

	t.Run("missing file", func(t *testing.T) {
		h := NewProfileHandler(&MockProfileService{}, testLogger())
		w := httptest.NewRecorder()

		h.UploadDocument(w, withUser(multipartRequest(t, "/api/profile/verification-document", "", nil), "user-1", models.RoleSearcher))

		resp := assertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
		assert.Contains(t, resp.Fields, "file")
	})

	t.Run("unsupported type", func(t *testing.T) {
		svc := &MockProfileService{UploadDocumentFunc: func(context.Context, string, []byte) (string, error) {
			return "", storage.ErrUnsupportedDocument
		}}
		h := NewProfileHandler(svc, testLogger())
		w := httptest.NewRecorder()

		h.UploadDocument(w, withUser(multipartRequest(t, "/api/profile/verification-document", "file", []byte("MZ")), "user-1", models.RoleSearcher))

		assertErrorResponse(t, w, http.StatusBadRequest, "validation_error")
	})

	t.Run("storage outage", func(t *testing.T) {
		svc := &MockProfileService{UploadDocumentFunc: func(context.Context, string, []byte) (string, error) {
			return "", errors.New("connection refused")
		}}
		h := NewProfileHandler(svc, testLogger())
		w := httptest.NewRecorder()

		h.UploadDocument(w, withUser(multipartRequest(t, "/api/profile/verification-document", "file", pdf), "user-1", models.RoleSearcher))

		assertErrorResponse(t, w, http.StatusBadGateway, "downstream_failure")
	})
}

func TestProfileHandler_UploadPhoto_NotOwner(t *testing.T) {
	svc := &MockProfileService{UploadPhotoFunc: func(_ context.Context, _, lobbyistID string, _ []byte) (string, error) {
		assert.Equal(t, "lob-9", lobbyistID)
		return "", models.ErrForbidden
	}}
	h := NewProfileHandler(svc, testLogger())
	w := httptest.NewRecorder()

	req := multipartRequest(t, "/api/profile/lob-9/photo", "file", []byte{0xff, 0xd8, 0xff})
	req = withChiParams(withUser(req, "user-1", models.RoleLobbyist), map[string]string{"id": "lob-9"})
	h.UploadPhoto(w, req)

	assertErrorResponse(t, w, http.StatusForbidden, "forbidden")
}
