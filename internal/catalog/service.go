package catalog

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/statusboard/statusboard/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength        = 120
	MaxDescriptionLength = 2000
	MaxSpecsLength       = 4000
)

// Service provides component catalog operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// List retrieves components filtered by type. filter is "All", empty, or
// one of the component types.
func (s *Service) List(ctx context.Context, filter string) (*models.ComponentList, error) {
	componentType, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}

	components, err := s.repo.List(ctx, ListOptions{Type: componentType})
	if err != nil {
		return nil, err
	}

	items := make([]models.Component, 0, len(components))
	for _, c := range components {
		items = append(items, toAPIComponent(c))
	}

	label := FilterAll
	if componentType != "" {
		label = string(componentType)
	}

	return &models.ComponentList{
		Items: items,
		Type:  label,
		Count: len(items),
	}, nil
}

// Get retrieves a component by ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Component, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := toAPIComponent(c)
	return &result, nil
}

// Create validates and stores a new component.
func (s *Service) Create(ctx context.Context, input *models.ComponentWriteRequest) (*models.Component, error) {
	if fieldErrors := ValidateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now()
	c := &Component{CreatedAt: now, UpdatedAt: now}
	applyInput(c, input)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	result := toAPIComponent(c)
	return &result, nil
}

// Update validates and replaces an existing component.
func (s *Service) Update(ctx context.Context, id int64, input *models.ComponentWriteRequest) (*models.Component, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fieldErrors := ValidateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	applyInput(c, input)
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	result := toAPIComponent(c)
	return &result, nil
}

// Delete removes a component.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// ParseFilter converts a type filter into a ComponentType. "All" and the
// empty string select every type.
func ParseFilter(filter string) (ComponentType, error) {
	if filter == "" || strings.EqualFold(filter, FilterAll) {
		return "", nil
	}

	for _, t := range Types {
		if strings.EqualFold(filter, string(t)) {
			return t, nil
		}
	}

	return "", &ValidationError{Errors: []models.FieldError{
		{Field: "type", Message: "must be All or one of " + typeList(), Code: "invalid_enum"},
	}}
}

// Filter returns the components of the given type, or all of them for "All".
// The input order is preserved.
func Filter(components []*Component, filter string) []*Component {
	componentType, err := ParseFilter(filter)
	if err != nil {
		return nil
	}
	if componentType == "" {
		return components
	}

	var result []*Component
	for _, c := range components {
		if c.Type == componentType {
			result = append(result, c)
		}
	}
	return result
}

// ValidateInput checks a component write request.
func ValidateInput(input *models.ComponentWriteRequest) []models.FieldError {
	var errs []models.FieldError

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required", Code: "required"})
	} else if len(name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters", Code: "too_long"})
	}

	if input.Type == "" {
		errs = append(errs, models.FieldError{Field: "type", Message: "is required", Code: "required"})
	} else if !ComponentType(input.Type).IsValid() {
		errs = append(errs, models.FieldError{Field: "type", Message: "must be one of " + typeList(), Code: "invalid_enum"})
	}

	switch {
	case input.Price == nil:
		errs = append(errs, models.FieldError{Field: "price", Message: "is required", Code: "required"})
	case math.IsNaN(*input.Price) || math.IsInf(*input.Price, 0):
		errs = append(errs, models.FieldError{Field: "price", Message: "must be a finite number", Code: "invalid"})
	case *input.Price < 0:
		errs = append(errs, models.FieldError{Field: "price", Message: "must not be negative", Code: "out_of_range"})
	}

	if input.ImageURL == "" {
		errs = append(errs, models.FieldError{Field: "imageUrl", Message: "is required", Code: "required"})
	} else if !isHTTPURL(input.ImageURL) {
		errs = append(errs, models.FieldError{Field: "imageUrl", Message: "must be an absolute http or https URL", Code: "invalid_url"})
	}

	if len(input.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 2000 characters", Code: "too_long"})
	}
	if len(input.Specs) > MaxSpecsLength {
		errs = append(errs, models.FieldError{Field: "specs", Message: "must be at most 4000 characters", Code: "too_long"})
	}

	return errs
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func typeList() string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func applyInput(c *Component, input *models.ComponentWriteRequest) {
	c.Name = strings.TrimSpace(input.Name)
	c.Type = ComponentType(input.Type)
	c.Price = *input.Price
	c.ImageURL = input.ImageURL
	c.Description = input.Description
	c.Specs = input.Specs
}

func toAPIComponent(c *Component) models.Component {
	return models.Component{
		ID:             c.ID,
		Name:           c.Name,
		Type:           string(c.Type),
		Price:          c.Price,
		PriceFormatted: FormatPrice(c.Price),
		ImageURL:       c.ImageURL,
		Description:    c.Description,
		Specs:          c.Specs,
		CreatedAt:      models.Timestamp(c.CreatedAt),
		UpdatedAt:      models.Timestamp(c.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// IsValidationError reports whether err carries field validation errors.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
