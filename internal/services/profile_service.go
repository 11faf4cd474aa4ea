package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/moderation"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/slug"
)

const maxSlugAttempts = 5

// ProfileStore is the lobbyist persistence used by owners.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Lobbyist, error)
	GetByOwner(ctx context.Context, userID string) (*models.Lobbyist, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateForUser(ctx context.Context, in models.NewLobbyist) (*models.Lobbyist, error)
	Resubmit(ctx context.Context, in models.Resubmission, expectedCount int) (*models.Lobbyist, error)
	UpdateField(ctx context.Context, id, field string, value any) (*models.Lobbyist, error)
	UpdatePhoto(ctx context.Context, id, photoURL string) error
}

type ClaimRequestStore interface {
	Create(ctx context.Context, c *models.ClaimRequest) (*models.ClaimRequest, error)
	HasPending(ctx context.Context, userID, lobbyistID string) (bool, error)
}

type RoleUpgradeRequestStore interface {
	Create(ctx context.Context, u *models.RoleUpgradeRequest) (*models.RoleUpgradeRequest, error)
	HasPending(ctx context.Context, userID string) (bool, error)
}

type MergeRequestStore interface {
	Create(ctx context.Context, m *models.MergeRequest) (*models.MergeRequest, error)
	HasPending(ctx context.Context, primaryID, duplicateID string) (bool, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// DocumentUploader stores claim verification documents.
type DocumentUploader interface {
	Upload(ctx context.Context, userID string, data []byte) (string, error)
}

// PhotoUploader normalizes and stores profile photos, returning the public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, lobbyistID string, data []byte) (string, error)
}

// ProfileDeps groups ProfileService collaborators.
type ProfileDeps struct {
	Profiles     ProfileStore
	Claims       ClaimRequestStore
	RoleUpgrades RoleUpgradeRequestStore
	Merges       MergeRequestStore
	Users        UserReader
	Documents    DocumentUploader
	Photos       PhotoUploader
	Notifier     Notifier
	Auditor      Auditor
	Policy       moderation.Policy
	AdminURL     string
}

// ProfileService implements the owner side of the profile lifecycle.
type ProfileService struct {
	deps   ProfileDeps
	now    func() time.Time
	logger *slog.Logger
}

func NewProfileService(deps ProfileDeps, logger *slog.Logger) *ProfileService {
	if deps.Policy.MaxAttempts == 0 {
		deps.Policy = moderation.DefaultPolicy()
	}
	return &ProfileService{deps: deps, now: time.Now, logger: logger}
}

// CreateProfileInput is the content of a self-created profile.
type CreateProfileInput struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Website      string
	LinkedInURL  string
	Bio          string
	Cities       []string
	SubjectAreas []string
}

func (in CreateProfileInput) content() models.ProfileContent {
	return models.ProfileContent{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Website:      strings.TrimSpace(in.Website),
		LinkedInURL:  strings.TrimSpace(in.LinkedInURL),
		Bio:          strings.TrimSpace(in.Bio),
		Cities:       trimAll(in.Cities),
		SubjectAreas: trimAll(in.SubjectAreas),
	}
}

// CreateProfile inserts a pending profile owned by the caller.
func (s *ProfileService) CreateProfile(ctx context.Context, userID string, in CreateProfileInput) (*models.Lobbyist, error) {
	content := in.content()
	fields := map[string]string{}
	if content.FirstName == "" || content.LastName == "" {
		fields["first_name"] = "first and last name are required"
		fields["last_name"] = "first and last name are required"
	}
	if content.Email == "" {
		fields["email"] = "email is required"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	if _, err := s.deps.Profiles.GetByOwner(ctx, userID); err == nil {
		return nil, models.ErrProfileExists
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to check existing profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	base := slug.Make(content.FirstName, content.LastName)
	if base == "" {
		return nil, models.NewValidationError("first_name", "name must contain letters or digits")
	}

	candidate := base
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		taken, err := s.deps.Profiles.SlugExists(ctx, candidate)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to check slug", slog.String("slug", candidate), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		if !taken {
			created, err := s.deps.Profiles.CreateForUser(ctx, models.NewLobbyist{
				UserID:  userID,
				Slug:    candidate,
				Content: content,
			})
			switch {
			case err == nil:
				s.logger.InfoContext(ctx, "profile created",
					slog.String("user_id", userID), slog.String("lobbyist_id", created.ID))
				alertAdmins(ctx, s.logger, s.deps.Notifier, EmailData{
					Subject: "New lobbyist profile awaiting review",
					Detail:  fmt.Sprintf("%s %s created a profile.", content.FirstName, content.LastName),
					URL:     s.deps.AdminURL,
				})
				return created, nil
			case errors.Is(err, models.ErrConflict):
				// Either the slug was taken concurrently or the user raced
				// another create; the latter is final.
				if _, ownErr := s.deps.Profiles.GetByOwner(ctx, userID); ownErr == nil {
					return nil, models.ErrProfileExists
				}
			default:
				s.logger.ErrorContext(ctx, "failed to create profile", slog.String("user_id", userID), slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
		}

		next, err := slug.WithSuffix(base)
		if err != nil {
			return nil, fmt.Errorf("failed to generate slug: %w", err)
		}
		candidate = next
	}

	s.logger.WarnContext(ctx, "slug attempts exhausted", slog.String("base", base))
	return nil, models.ErrConflict
}

// ClaimInput is a claim on an existing, unclaimed profile.
type ClaimInput struct {
	LobbyistID         string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	VerificationDocKey string
}

func (s *ProfileService) SubmitClaim(ctx context.Context, userID string, in ClaimInput) (*models.ClaimRequest, error) {
	l, err := s.deps.Profiles.GetByID(ctx, in.LobbyistID)
	if err != nil {
		return nil, s.mapLookup(ctx, "lobbyist", in.LobbyistID, err)
	}
	if l.IsClaimed {
		return nil, models.ErrAlreadyClaimed
	}

	if _, err := s.deps.Profiles.GetByOwner(ctx, userID); err == nil {
		return nil, models.ErrProfileExists
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to check existing profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	pending, err := s.deps.Claims.HasPending(ctx, userID, l.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check pending claim", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if pending {
		return nil, models.ErrDuplicateRequest
	}

	claim := &models.ClaimRequest{
		UserID:     userID,
		LobbyistID: l.ID,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      optional(in.Phone),
	}
	if key := strings.TrimSpace(in.VerificationDocKey); key != "" {
		if !strings.HasPrefix(key, "verification/"+userID+"/") {
			return nil, models.NewValidationError("verification_document_key", "document does not belong to this user")
		}
		claim.VerificationDocKey = &key
	}

	created, err := s.deps.Claims.Create(ctx, claim)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrDuplicateRequest
		}
		s.logger.ErrorContext(ctx, "failed to create claim", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	alertAdmins(ctx, s.logger, s.deps.Notifier, EmailData{
		Subject: "New profile claim",
		Detail:  fmt.Sprintf("%s %s claimed the profile of %s %s.", claim.FirstName, claim.LastName, l.FirstName, l.LastName),
		URL:     s.deps.AdminURL,
	})
	return created, nil
}

// UploadVerificationDocument stores a claim document and returns its key.
func (s *ProfileService) UploadVerificationDocument(ctx context.Context, userID string, data []byte) (string, error) {
	key, err := s.deps.Documents.Upload(ctx, userID, data)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "verification document uploaded", slog.String("user_id", userID), slog.String("key", key))
	return key, nil
}

// UploadPhoto replaces the owner's profile photo.
func (s *ProfileService) UploadPhoto(ctx context.Context, userID, lobbyistID string, data []byte) (string, error) {
	l, err := s.deps.Profiles.GetByID(ctx, lobbyistID)
	if err != nil {
		return "", s.mapLookup(ctx, "lobbyist", lobbyistID, err)
	}
	if !l.IsOwnedBy(userID) {
		return "", models.ErrForbidden
	}

	url, err := s.deps.Photos.Upload(ctx, l.ID, data)
	if err != nil {
		return "", err
	}
	if err := s.deps.Profiles.UpdatePhoto(ctx, l.ID, url); err != nil {
		s.logger.ErrorContext(ctx, "failed to store photo url", slog.String("lobbyist_id", l.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	return url, nil
}

// Resubmit sends a rejected profile back to review with corrected content.
func (s *ProfileService) Resubmit(ctx context.Context, userID, lobbyistID string, in CreateProfileInput) (*models.Lobbyist, error) {
	l, err := s.deps.Profiles.GetByID(ctx, lobbyistID)
	if err != nil {
		return nil, s.mapLookup(ctx, "lobbyist", lobbyistID, err)
	}

	now := s.now()
	content := in.content()
	attempt, err := s.deps.Policy.Check(l, userID, content, now)
	if err != nil {
		return nil, err
	}

	updated, err := s.deps.Profiles.Resubmit(ctx, models.Resubmission{
		LobbyistID:    l.ID,
		Content:       content,
		PendingReason: s.deps.Policy.PendingReason(attempt),
		At:            now,
	}, l.ResubmissionCount)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to resubmit profile", slog.String("lobbyist_id", l.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	record(ctx, s.deps.Auditor, AuditEntry{
		ActorID:    userID,
		Action:     models.AuditResubmitProfile,
		TargetType: models.AuditTargetLobbyist,
		TargetID:   l.ID,
		Success:    true,
		Metadata:   models.AuditMetadata{"attempt": attempt},
	})
	alertAdmins(ctx, s.logger, s.deps.Notifier, EmailData{
		Subject: "Profile resubmitted for review",
		Detail:  fmt.Sprintf("%s %s: %s", updated.FirstName, updated.LastName, s.deps.Policy.PendingReason(attempt)),
		URL:     s.deps.AdminURL,
	})
	return updated, nil
}

var listFields = map[string]bool{"cities": true, "subject_areas": true}

const maxBioLength = 5000

// UpdateField edits one whitelisted content field without touching moderation state.
func (s *ProfileService) UpdateField(ctx context.Context, userID, lobbyistID, field string, value any) (*models.Lobbyist, error) {
	if !repositories.IsEditableField(field) {
		return nil, models.NewValidationError("field", "field is not editable")
	}

	normalized, err := normalizeFieldValue(field, value)
	if err != nil {
		return nil, err
	}

	l, err := s.deps.Profiles.GetByID(ctx, lobbyistID)
	if err != nil {
		return nil, s.mapLookup(ctx, "lobbyist", lobbyistID, err)
	}
	if !l.IsOwnedBy(userID) {
		return nil, models.ErrForbidden
	}

	updated, err := s.deps.Profiles.UpdateField(ctx, l.ID, field, normalized)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update profile field",
			slog.String("lobbyist_id", l.ID), slog.String("field", field), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

func normalizeFieldValue(field string, value any) (any, error) {
	if listFields[field] {
		var items []string
		switch v := value.(type) {
		case []string:
			items = v
		case []any:
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return nil, models.NewValidationError("value", "list entries must be strings")
				}
				items = append(items, str)
			}
		case nil:
		default:
			return nil, models.NewValidationError("value", "value must be a list of strings")
		}
		return trimAll(items), nil
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if field == "bio" && len(v) > maxBioLength {
			return nil, models.NewValidationError("value", fmt.Sprintf("bio must be at most %d characters", maxBioLength))
		}
		return v, nil
	default:
		return nil, models.NewValidationError("value", "value must be a string")
	}
}

// Dashboard is the owner's view of their profile and its review state.
type Dashboard struct {
	Profile      *models.Lobbyist       `json:"profile"`
	Resubmission moderation.Eligibility `json:"resubmission"`
}

func (s *ProfileService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	l, err := s.deps.Profiles.GetByOwner(ctx, userID)
	if err != nil {
		return nil, s.mapLookup(ctx, "profile owner", userID, err)
	}
	return &Dashboard{
		Profile:      l,
		Resubmission: s.deps.Policy.Evaluate(l, s.now()),
	}, nil
}

const minJustificationLength = 50

// RoleUpgradeInput asks for the lobbyist role.
type RoleUpgradeInput struct {
	Justification        string
	IsRegisteredLobbyist bool
}

func (s *ProfileService) RequestRoleUpgrade(ctx context.Context, userID string, in RoleUpgradeInput) (*models.RoleUpgradeRequest, error) {
	justification := strings.TrimSpace(in.Justification)
	if len([]rune(justification)) < minJustificationLength {
		return nil, models.NewValidationError("justification",
			fmt.Sprintf("justification must be at least %d characters", minJustificationLength))
	}
	if !in.IsRegisteredLobbyist {
		return nil, models.ErrNotRegistered
	}

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.mapLookup(ctx, "user", userID, err)
	}
	if user.Role != models.RoleSearcher {
		return nil, models.NewValidationError("role", "only searcher accounts can request an upgrade")
	}

	pending, err := s.deps.RoleUpgrades.HasPending(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check pending role upgrade", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if pending {
		return nil, models.ErrDuplicateRequest
	}

	created, err := s.deps.RoleUpgrades.Create(ctx, &models.RoleUpgradeRequest{
		UserID:               userID,
		RequestedRole:        models.RoleLobbyist,
		Justification:        justification,
		IsRegisteredLobbyist: true,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create role upgrade", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	alertAdmins(ctx, s.logger, s.deps.Notifier, EmailData{
		Subject: "Role upgrade requested",
		Detail:  fmt.Sprintf("%s asked to become a lobbyist.", user.FullName),
		URL:     s.deps.AdminURL,
	})
	return created, nil
}

// MergeInput names the profile to keep and the one to fold into it.
type MergeInput struct {
	PrimaryID   string
	DuplicateID string
	Reason      string
}

func (s *ProfileService) RequestMerge(ctx context.Context, userID string, in MergeInput) (*models.MergeRequest, error) {
	if in.PrimaryID == in.DuplicateID {
		return nil, models.ErrSameProfile
	}

	primary, err := s.deps.Profiles.GetByID(ctx, in.PrimaryID)
	if err != nil {
		return nil, s.mapLookup(ctx, "lobbyist", in.PrimaryID, err)
	}
	duplicate, err := s.deps.Profiles.GetByID(ctx, in.DuplicateID)
	if err != nil {
		return nil, s.mapLookup(ctx, "lobbyist", in.DuplicateID, err)
	}

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.mapLookup(ctx, "user", userID, err)
	}
	if !relatedTo(primary, user) && !relatedTo(duplicate, user) {
		return nil, models.ErrNotRelated
	}

	pending, err := s.deps.Merges.HasPending(ctx, primary.ID, duplicate.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check pending merge", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if pending {
		return nil, models.ErrDuplicateRequest
	}

	created, err := s.deps.Merges.Create(ctx, &models.MergeRequest{
		RequesterID: userID,
		PrimaryID:   primary.ID,
		DuplicateID: duplicate.ID,
		Reason:      optional(in.Reason),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create merge request", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	alertAdmins(ctx, s.logger, s.deps.Notifier, EmailData{
		Subject: "Profile merge requested",
		Detail:  fmt.Sprintf("Merge %s into %s.", duplicate.Slug, primary.Slug),
		URL:     s.deps.AdminURL,
	})
	return created, nil
}

// relatedTo reports whether the user owns the profile or shares its email.
func relatedTo(l *models.Lobbyist, u *models.User) bool {
	if l.IsOwnedBy(u.ID) {
		return true
	}
	return l.Email != nil && u.Email != "" && strings.EqualFold(strings.TrimSpace(*l.Email), u.Email)
}

func (s *ProfileService) mapLookup(ctx context.Context, what, id string, err error) error {
	return lookupError(ctx, s.logger, what, id, err)
}

// lookupError passes ErrNotFound through and hides everything else.
func lookupError(ctx context.Context, log *slog.Logger, what, id string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	log.ErrorContext(ctx, "lookup failed", slog.String("entity", what), slog.String("id", id), slog.Any("error", err))
	return models.ErrInternalServer
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
