package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/dcode-github/real_estate_listing/services"
)

func TestParsePropertyFilter(t *testing.T) {
	q := url.Values{
		"type":      {"villa"},
		"minPrice":  {"100"},
		"maxPrice":  {"cheap"},
		"bedrooms":  {"2"},
		"bathrooms": {""},
		"city":      {"Goa"},
	}
	f := ParsePropertyFilter(q)
	if f.Type != "villa" || f.City != "Goa" {
		t.Fatalf("string fields: %+v", f)
	}
	if f.MinPrice == nil || *f.MinPrice != 100 {
		t.Fatalf("minPrice: %v", f.MinPrice)
	}
	if f.MaxPrice != nil {
		t.Fatalf("malformed maxPrice should be ignored, got %v", *f.MaxPrice)
	}
	if f.MinBedrooms == nil || *f.MinBedrooms != 2 {
		t.Fatalf("bedrooms: %v", f.MinBedrooms)
	}
	if f.MinBathrooms != nil {
		t.Fatalf("empty bathrooms should be unset")
	}
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{"": 1, "0": 1, "-3": 1, "x": 1, "4": 4}
	for raw, want := range cases {
		if got := parsePage(raw); got != want {
			t.Fatalf("parsePage(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		kind services.Kind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindBadRequest, http.StatusBadRequest},
		{services.KindUnauthorized, http.StatusUnauthorized},
		{services.KindConflict, http.StatusConflict},
		{services.KindNotFound, http.StatusNotFound},
		{services.KindInternal, http.StatusInternalServerError},
		{services.KindOf(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.kind); got != tc.want {
			t.Fatalf("statusFor(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}
