package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/devphaseX/assoc-api/internal/store"
	"github.com/devphaseX/assoc-api/internal/validator"
)

type createProfileRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Program     string `json:"program" validate:"max=120"`
	YearOfStudy int    `json:"year_of_study" validate:"omitempty,gte=1,lte=10"`
	Bio         string `json:"bio" validate:"max=1000"`
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Program     *string `json:"program" validate:"omitempty,max=120"`
	YearOfStudy *int    `json:"year_of_study" validate:"omitempty,gte=1,lte=10"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	Version     *int    `json:"version" validate:"omitempty,gte=1"`
}

func (app *application) createProfileHandler(w http.ResponseWriter, r *http.Request) {
	var form createProfileRequest

	if err := app.readJSON(w, r, &form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validate.Struct(form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profile := &store.Profile{
		FirstName:   strings.TrimSpace(form.FirstName),
		LastName:    strings.TrimSpace(form.LastName),
		Email:       strings.ToLower(strings.TrimSpace(form.Email)),
		Program:     form.Program,
		YearOfStudy: form.YearOfStudy,
		Bio:         form.Bio,
	}

	if err := app.store.Profiles.Create(r.Context(), profile); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.duplicateEmailResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.successResponse(w, http.StatusCreated, envelope{
		"profile": profile,
	})
}

func (app *application) listProfilesHandler(w http.ResponseWriter, r *http.Request) {
	fq := store.PaginateQueryFilter{
		Page:         1,
		PageSize:     20,
		Sort:         "created_at",
		SortSafelist: []string{"created_at", "-created_at", "last_name", "-last_name", "year_of_study", "-year_of_study"},
	}

	if err := fq.Parse(r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validate.Struct(fq); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profiles, metadata, err := app.store.Profiles.List(r.Context(), fq)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.successResponse(w, http.StatusOK, envelope{
		"profiles": profiles,
		"metadata": metadata,
	})
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := app.getProfile(r.Context(), app.readStringID(r, "profileID"))
	if err != nil {
		app.profileLookupErrorResponse(w, r, err)
		return
	}

	app.successResponse(w, http.StatusOK, envelope{
		"profile": profile,
	})
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	profileID := app.readStringID(r, "profileID")

	var form updateProfileRequest

	if err := app.readJSON(w, r, &form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validate.Struct(form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profile, err := app.store.Profiles.GetByID(r.Context(), profileID)
	if err != nil {
		app.profileLookupErrorResponse(w, r, err)
		return
	}

	if form.Version != nil && *form.Version != profile.Version {
		app.editConflictResponse(w, r)
		return
	}

	if form.FirstName != nil {
		profile.FirstName = strings.TrimSpace(*form.FirstName)
	}
	if form.LastName != nil {
		profile.LastName = strings.TrimSpace(*form.LastName)
	}
	if form.Email != nil {
		profile.Email = strings.ToLower(strings.TrimSpace(*form.Email))
	}
	if form.Program != nil {
		profile.Program = *form.Program
	}
	if form.YearOfStudy != nil {
		profile.YearOfStudy = *form.YearOfStudy
	}
	if form.Bio != nil {
		profile.Bio = *form.Bio
	}

	if profile.FirstName == "" || profile.LastName == "" {
		validationErrors := &validator.ValidationErrors{}
		if profile.FirstName == "" {
			validationErrors.AddFieldError("first_name", "first_name must not be blank")
		}
		if profile.LastName == "" {
			validationErrors.AddFieldError("last_name", "last_name must not be blank")
		}
		app.badRequestResponse(w, r, validationErrors)
		return
	}

	if err := app.store.Profiles.Update(r.Context(), profile); err != nil {
		switch {
		case errors.Is(err, store.ErrEditConflict):
			app.editConflictResponse(w, r)
		case errors.Is(err, store.ErrDuplicateEmail):
			app.duplicateEmailResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.evictProfile(r.Context(), profile.ID)

	app.successResponse(w, http.StatusOK, envelope{
		"profile": profile,
	})
}

func (app *application) deleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	profileID := app.readStringID(r, "profileID")

	avatarKey, err := app.store.Profiles.Delete(r.Context(), profileID)
	if err != nil {
		app.profileLookupErrorResponse(w, r, err)
		return
	}

	app.evictProfile(r.Context(), profileID)
	app.scheduleFileDeletion(avatarKey, "profile_deleted")

	app.successResponse(w, http.StatusOK, envelope{
		"message": "profile deleted successfully",
	})
}

// uploadAvatarHandler stores a new profile picture and releases the old one.
// The replaced object is cleaned up on a best-effort basis and never fails
// the request.
func (app *application) uploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	profileID := app.readStringID(r, "profileID")

	if _, err := app.store.Profiles.GetByID(r.Context(), profileID); err != nil {
		app.profileLookupErrorResponse(w, r, err)
		return
	}

	req, err := app.readUploadedFile(w, r, "avatar")
	if err != nil {
		app.uploadReadErrorResponse(w, r, err)
		return
	}

	if !strings.HasPrefix(req.MimeType, "image/") {
		validationErrors := &validator.ValidationErrors{}
		validationErrors.AddFieldError("avatar", "avatar must be an image")
		app.badRequestResponse(w, r, validationErrors)
		return
	}

	result, err := app.fileobject.UploadFile(r.Context(), req)
	if err != nil {
		app.fileObjectErrorResponse(w, r, err)
		return
	}

	previousKey, err := app.store.Profiles.SetAvatar(r.Context(), profileID, result.PublicURL, result.ObjectKey)
	if err != nil {
		app.scheduleFileDeletion(result.ObjectKey, "avatar_orphaned")
		app.profileLookupErrorResponse(w, r, err)
		return
	}

	app.evictProfile(r.Context(), profileID)

	if previousKey != result.ObjectKey {
		app.scheduleFileDeletion(previousKey, "avatar_replaced")
	}

	app.successResponse(w, http.StatusOK, envelope{
		"avatar": result,
	})
}

func (app *application) profileLookupErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		app.notFoundResponse(w, r, "profile not found")
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getProfile(ctx context.Context, profileID string) (*store.Profile, error) {
	if app.cacheStore != nil {
		profile, err := app.cacheStore.Profiles.Get(ctx, profileID)

		if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			app.logger.Warnw("error fetching profile from cache", "id", profileID, "error", err)
		}

		if profile != nil {
			app.logger.Debugw("cache hit", "key", "profile", "id", profileID)
			return profile, nil
		}
	}

	profile, err := app.store.Profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if app.cacheStore != nil {
		if err := app.cacheStore.Profiles.Set(ctx, profile); err != nil {
			app.logger.Warnw("error caching profile", "id", profileID, "error", err)
		}
	}

	return profile, nil
}

func (app *application) evictProfile(ctx context.Context, profileID string) {
	if app.cacheStore == nil {
		return
	}

	if err := app.cacheStore.Profiles.Delete(ctx, profileID); err != nil {
		app.logger.Warnw("error evicting profile from cache", "id", profileID, "error", err)
	}
}
