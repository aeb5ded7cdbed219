package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/pkg/geospatial"
	"github.com/samirrijal/placepicker/internal/pkg/logging"
)

// Presentation strings shown alongside the two lists.
const (
	appTitle             = "PlacePicker"
	appIntro             = "Create your personal collection of places you would like to visit or you have visited."
	pickedTitle          = "I'd like to visit ..."
	pickedFallbackText   = "Select the places you would like to visit below."
	availableTitle       = "Available Places"
	awaitingPositionText = "Sorting places by distance..."
)

// Available view status values.
const (
	statusAwaitingPosition = "awaiting_position"
	statusResolved         = "resolved"
)

// AvailableResponse is the ranked catalog or the awaiting-position marker.
type AvailableResponse struct {
	Status   string             `json:"status"`
	Message  string             `json:"message,omitempty"`
	Observer *domain.Coordinate `json:"observer,omitempty"`
	Places   []domain.Place     `json:"places"`
}

// SelectionResponse is returned by every intent that may change the selection.
type SelectionResponse struct {
	Picked  []domain.Place      `json:"picked"`
	Removal domain.RemovalState `json:"removal"`
}

// ViewResponse is everything a client needs to draw the page.
type ViewResponse struct {
	Title     string              `json:"title"`
	Intro     string              `json:"intro"`
	Picked    ListResponse        `json:"picked"`
	Available AvailableListResp   `json:"available"`
	Removal   domain.RemovalState `json:"removal"`
}

// ListResponse is a titled list of places.
type ListResponse struct {
	Title        string         `json:"title"`
	FallbackText string         `json:"fallback_text"`
	Places       []domain.Place `json:"places"`
}

// AvailableListResp is the titled available list.
type AvailableListResp struct {
	Title string `json:"title"`
	AvailableResponse
}

// positionReport is the body of POST /v1/position.
type positionReport struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

func toAvailableResponse(av domain.AvailableView) AvailableResponse {
	if !av.Resolved {
		return AvailableResponse{
			Status:  statusAwaitingPosition,
			Message: awaitingPositionText,
			Places:  []domain.Place{},
		}
	}
	return AvailableResponse{Status: statusResolved, Observer: av.Observer, Places: av.Places}
}

func selectionResponse(deps *Dependencies) SelectionResponse {
	view := deps.Places.View()
	return SelectionResponse{Picked: view.Picked, Removal: view.Removal}
}

// ListPlacesHandler returns the catalog in its original order.
func ListPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)
		places, pg := Paginate(deps.Places.Catalog(), offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: places, Pagination: pg})
	}
}

// GetPlaceHandler returns a single catalog place.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place, err := deps.Places.Place(c.Params("id"))
		if err != nil {
			return errNotFound(c, "place not found")
		}
		return c.JSON(place)
	}
}

// AvailablePlacesHandler returns places ranked by distance, or the
// awaiting-position marker until the observer position arrives.
func AvailablePlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(toAvailableResponse(deps.Places.Available()))
	}
}

// PickedPlacesHandler returns the picked places, most recent first.
func PickedPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Places.Picked())
	}
}

// PickPlaceHandler adds a place to the selection.
func PickPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := deps.Places.Pick(c.UserContext(), id); err != nil {
			if errors.Is(err, domain.ErrUnknownPlace) {
				return errNotFound(c, fmt.Sprintf("place %q not found", id))
			}
			return err
		}
		logging.FromContext(c.UserContext()).Info("place picked", "place_id", id)
		return c.JSON(selectionResponse(deps))
	}
}

// RequestRemovalHandler arms the removal confirmation for a place.
func RequestRemovalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := deps.Places.Place(id); err != nil {
			return errNotFound(c, fmt.Sprintf("place %q not found", id))
		}
		deps.Places.RequestRemoval(id)
		return c.Status(fiber.StatusAccepted).JSON(selectionResponse(deps))
	}
}

// RemovalStateHandler reports whether a removal awaits confirmation.
func RemovalStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Places.RemovalState())
	}
}

// ConfirmRemovalHandler removes the pending place, if any.
func ConfirmRemovalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Places.ConfirmRemoval(c.UserContext())
		return c.JSON(selectionResponse(deps))
	}
}

// CancelRemovalHandler discards the pending removal.
func CancelRemovalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Places.CancelRemoval()
		return c.JSON(selectionResponse(deps))
	}
}

// ReportPositionHandler accepts the one observer position report, either a
// coordinate or an error such as a denied permission.
func ReportPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Position == nil {
			return errUnavailable(c, "position reporting is not enabled")
		}

		var body positionReport
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var err error
		if body.Error != "" {
			err = deps.Position.Fail(fmt.Errorf("%w: %s", domain.ErrPositionUnavailable, body.Error))
		} else {
			if body.Lat == nil || body.Lon == nil {
				return errBadRequest(c, "lat and lon are required")
			}
			if verr := geospatial.Validate(*body.Lat, *body.Lon); verr != nil {
				return errBadRequest(c, verr.Error())
			}
			err = deps.Position.Resolve(domain.Coordinate{Lat: *body.Lat, Lon: *body.Lon})
		}

		if errors.Is(err, domain.ErrPositionAlreadyReported) {
			return errConflict(c, "position already reported")
		}
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
	}
}

// ViewHandler returns both lists, the removal state and the page texts.
func ViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view := deps.Places.View()
		return c.JSON(ViewResponse{
			Title: appTitle,
			Intro: appIntro,
			Picked: ListResponse{
				Title:        pickedTitle,
				FallbackText: pickedFallbackText,
				Places:       view.Picked,
			},
			Available: AvailableListResp{
				Title:             availableTitle,
				AvailableResponse: toAvailableResponse(view.Available),
			},
			Removal: view.Removal,
		})
	}
}
