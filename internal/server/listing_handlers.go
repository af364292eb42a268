package server

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"secondmain/internal/models"
	"secondmain/internal/repository"
	"secondmain/internal/service"
	"secondmain/internal/storage"
)

// uploadField is the multipart field carrying listing photos.
const uploadField = "images"

type createListingRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       flexString  `json:"price"`
	Category    string      `json:"category"`
	Condition   string      `json:"condition"`
	Location    string      `json:"location"`
	Images      flexStrings `json:"images"`
}

type updateListingRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Price       *flexString `json:"price"`
	Category    *string     `json:"category"`
	Condition   *string     `json:"condition"`
	Location    *string     `json:"location"`
	Images      flexStrings `json:"images"`
	Status      *string     `json:"status"`
}

type featuredRequest struct {
	Featured *bool `json:"isFeatured"`
}

// SearchListings handles GET /api/annonces
func (s *Server) SearchListings(c *fiber.Ctx) error {
	var query repository.ListingQuery
	if err := c.QueryParser(&query); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid query parameters"))
	}
	filter, err := query.Parse()
	if err != nil {
		return s.respondError(c, err)
	}

	page, err := s.listingService.Search(c.UserContext(), filter)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "", page)
}

// GetListing handles GET /api/annonces/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	listing, err := s.listingService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "", listing)
}

// GetUserListings handles GET /api/annonces/user/:userId
func (s *Server) GetUserListings(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	listings, err := s.listingService.ListByOwner(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "", listings)
}

// GetMyListings handles GET /api/annonces/my/annonces
func (s *Server) GetMyListings(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	listings, err := s.listingService.ListMine(c.UserContext(), actor)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "", listings)
}

// CreateListing handles POST /api/annonces. Photos arrive either as
// multipart files under "images" or as a list of URLs.
func (s *Server) CreateListing(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	in, err := s.createListingInput(c)
	if err != nil {
		return s.respondError(c, err)
	}

	listing, err := s.listingService.Create(c.UserContext(), actor, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusCreated, "Listing created", listing)
}

func (s *Server) createListingInput(c *fiber.Ctx) (service.CreateListingInput, error) {
	in := service.CreateListingInput{BaseURL: s.requestBaseURL(c)}

	if c.Is("json") {
		var req createListingRequest
		if err := c.BodyParser(&req); err != nil {
			return in, models.NewValidationError("Invalid request body")
		}
		in.Title = req.Title
		in.Description = req.Description
		in.Price = string(req.Price)
		in.Category = req.Category
		in.Condition = req.Condition
		in.Location = req.Location
		in.ImageURLs = req.Images
		return in, nil
	}

	values, files, err := formData(c)
	if err != nil {
		return in, err
	}
	in.Title = first(values["title"])
	in.Description = first(values["description"])
	in.Price = first(values["price"])
	in.Category = first(values["category"])
	in.Condition = first(values["condition"])
	in.Location = first(values["location"])
	in.ImageURLs = values[uploadField]

	for _, fh := range files[uploadField] {
		upload, err := s.readUpload(fh)
		if err != nil {
			return in, err
		}
		in.Uploads = append(in.Uploads, upload)
	}
	return in, nil
}

// readUpload reads at most one byte past the size cap so oversized files are
// still rejected by the image checks.
func (s *Server) readUpload(fh *multipart.FileHeader) (storage.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Upload{}, models.NewValidationError(fmt.Sprintf("Could not read file %q", fh.Filename))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.UploadMaxSizeBytes()+1))
	if err != nil {
		return storage.Upload{}, models.NewValidationError(fmt.Sprintf("Could not read file %q", fh.Filename))
	}
	return storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

// UpdateListing handles PUT /api/annonces/:id
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in, err := updateListingInput(c)
	if err != nil {
		return s.respondError(c, err)
	}

	listing, err := s.listingService.Update(c.UserContext(), actor, id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Listing updated", listing)
}

func updateListingInput(c *fiber.Ctx) (service.UpdateListingInput, error) {
	var in service.UpdateListingInput

	if c.Is("json") {
		var req updateListingRequest
		if err := c.BodyParser(&req); err != nil {
			return in, models.NewValidationError("Invalid request body")
		}
		in.Title = req.Title
		in.Description = req.Description
		if req.Price != nil {
			price := string(*req.Price)
			in.Price = &price
		}
		in.Category = req.Category
		in.Condition = req.Condition
		in.Location = req.Location
		in.Images = req.Images
		in.Status = req.Status
		return in, nil
	}

	values, _, err := formData(c)
	if err != nil {
		return in, err
	}
	in.Title = optional(values, "title")
	in.Description = optional(values, "description")
	in.Price = optional(values, "price")
	in.Category = optional(values, "category")
	in.Condition = optional(values, "condition")
	in.Location = optional(values, "location")
	in.Images = values[uploadField]
	in.Status = optional(values, "status")
	return in, nil
}

// DeleteListing handles DELETE /api/annonces/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.Delete(c.UserContext(), actor, id); err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Listing deleted", nil)
}

// SetListingFeatured handles PATCH /api/annonces/:id/featured
func (s *Server) SetListingFeatured(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req featuredRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.Featured == nil {
		return s.respondError(c, models.NewValidationError("isFeatured is required"))
	}

	listing, err := s.listingService.SetFeatured(c.UserContext(), actor, id, *req.Featured)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Listing updated", listing)
}

// formData returns the fields and files of a multipart or urlencoded body.
func formData(c *fiber.Ctx) (map[string][]string, map[string][]*multipart.FileHeader, error) {
	if len(c.Request().Header.MultipartFormBoundary()) > 0 {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, models.NewValidationError("Invalid multipart body")
		}
		return form.Value, form.File, nil
	}

	values := map[string][]string{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		values[string(key)] = append(values[string(key)], string(value))
	})
	return values, nil, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func optional(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}
