package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/validate"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

var validatePhotoURL = validate.Field("imageUrl",
	validate.Required(),
	validate.URL(),
	validate.MaxLength(2048),
)

var validatePhotoCaption = validate.Field("caption",
	validate.MaxLength(500),
)

type SharePhotoInput struct {
	ImageURL string   `json:"imageUrl"`
	Caption  string   `json:"caption,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SharePhoto stores an attendee photo. When the room requires moderation
// the photo waits in the queue and only the uploader is told; otherwise it
// is broadcast immediately.
func (e *Engine) SharePhoto(ctx context.Context, c *ws.Client, input SharePhotoInput) (*domain.LivePhoto, error) {
	event, err := e.liveRoom(ctx, c.RoomID)
	if err != nil {
		return nil, err
	}
	if !event.Settings.PhotoSharingEnabled {
		return nil, domain.ErrFeatureDisabled
	}
	if err := validatePhotoURL(input.ImageURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validatePhotoCaption(input.Caption); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	photo := domain.NewLivePhoto(event.ID, input.ImageURL, input.Caption, input.Tags,
		c.UserID, c.DisplayName, event.Settings.ModerationRequired)

	if err := e.repos.Photos.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if photo.Status == domain.PhotoApproved {
		e.router.Publish(event.ID, ws.NewPhoto, photo)
	} else {
		e.router.SendDirect(c, &ws.WSMessage{Type: ws.NewPhoto, RoomID: event.ID, Data: photo})
	}

	e.record(event.ID, c.UserID, domain.ActionPhotoShared, map[string]any{"photoId": photo.ID})
	return photo, nil
}

// LikePhoto toggles the caller's like on an approved photo.
func (e *Engine) LikePhoto(ctx context.Context, c *ws.Client, photoID string) error {
	lock := e.locks.get(photoID)
	lock.Lock()
	defer lock.Unlock()

	photo, err := e.getPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.Status != domain.PhotoApproved {
		// Unapproved photos are invisible to attendees.
		return domain.ErrPhotoNotFound
	}
	if _, err := e.liveRoom(ctx, photo.LiveEventID); err != nil {
		return err
	}

	liked := photo.ToggleLike(c.UserID)

	if err := e.repos.Photos.Update(ctx, photo); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.router.Publish(photo.LiveEventID, ws.PhotoLike, map[string]any{
		"photoId":   photo.ID,
		"likeCount": photo.LikeCount,
		"userId":    c.UserID,
		"liked":     liked,
	})
	e.record(photo.LiveEventID, c.UserID, domain.ActionPhotoLiked, map[string]any{"photoId": photoID})
	return nil
}

// ModeratePhoto approves or rejects a pending photo. Organizer only; an
// approval is the moment the room first sees the photo.
func (e *Engine) ModeratePhoto(ctx context.Context, eventID, organizerID, photoID string, approve bool) (*domain.LivePhoto, error) {
	lock := e.locks.get(photoID)
	lock.Lock()
	defer lock.Unlock()

	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}

	photo, err := e.getPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.LiveEventID != event.ID {
		return nil, domain.ErrPhotoNotFound
	}

	if err := photo.Moderate(approve, organizerID, time.Now()); err != nil {
		return nil, err
	}

	if err := e.repos.Photos.Update(ctx, photo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if photo.Status == domain.PhotoApproved {
		e.router.Publish(event.ID, ws.NewPhoto, photo)
	}

	e.record(event.ID, organizerID, domain.ActionPhotoModerated, map[string]any{
		"photoId":  photoID,
		"approved": approve,
	})
	return photo, nil
}

// PendingPhotos lists the moderation queue for the event's room. Organizer
// only; pending photos never appear in the public snapshot.
func (e *Engine) PendingPhotos(ctx context.Context, eventID, organizerID string) ([]domain.LivePhoto, error) {
	event, err := e.liveRoomByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOrganizer(ctx, event, organizerID); err != nil {
		return nil, err
	}

	photos, err := e.repos.Photos.ListPending(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return photos, nil
}

func (e *Engine) getPhoto(ctx context.Context, photoID string) (*domain.LivePhoto, error) {
	photo, err := e.repos.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return photo, nil
}
