package mutation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
)

// DefaultCaption is used for attachments submitted without a caption.
const DefaultCaption = "Property image"

// ParseDraft validates the mandatory fields and converts the raw text fields.
// Title and price must be present (price must also be a number); unparsable optional
// numbers become absent.
func ParseDraft(d model.ListingDraft) (model.ListingPayload, error) {
	title := strings.TrimSpace(d.Title)
	priceText := strings.TrimSpace(d.Price)
	if title == "" || priceText == "" {
		return model.ListingPayload{}, fmt.Errorf("%w: please fill in at least title and price", errs.ErrValidation)
	}
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.ListingPayload{}, fmt.Errorf("%w: price %q is not a number", errs.ErrValidation, d.Price)
	}

	return model.ListingPayload{
		Title:        title,
		Description:  d.Description,
		Price:        price,
		AreaSqft:     optionalInt(d.AreaSqft),
		Bedrooms:     optionalInt(d.Bedrooms),
		Bathrooms:    optionalFloat(d.Bathrooms),
		PropertyType: d.PropertyType,
		Address:      d.Address,
		City:         d.City,
		State:        d.State,
		ZipCode:      d.ZipCode,
	}, nil
}

// optionalInt accepts "12" and truncates "12.7"; anything else is absent.
func optionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	v := int(f)
	return &v
}

func optionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
