package domain

// RawReview is one element of the `results` array, decoded loosely.
type RawReview = map[string]any

// Columns is the fixed header of the output table.
var Columns = []string{
	"app_name",
	"platform",
	"device_manufacturer",
	"device_model",
	"review_polarity",
	"review_tags",
	"review_score",
	"review_text",
	"review_author",
	"review_time",
	"response_time",
	"response_text",
	"response_author",
}

// FlatRecord is one output row. A nil field is written as an empty value.
type FlatRecord struct {
	AppName            any
	Platform           any
	DeviceManufacturer any
	DeviceModel        any
	ReviewPolarity     any
	ReviewTags         any
	ReviewScore        any
	ReviewText         any
	ReviewAuthor       any
	ReviewTime         any
	ResponseTime       any
	ResponseText       any
	ResponseAuthor     any
}

// Values returns the fields in Columns order.
func (r FlatRecord) Values() []any {
	return []any{
		r.AppName,
		r.Platform,
		r.DeviceManufacturer,
		r.DeviceModel,
		r.ReviewPolarity,
		r.ReviewTags,
		r.ReviewScore,
		r.ReviewText,
		r.ReviewAuthor,
		r.ReviewTime,
		r.ResponseTime,
		r.ResponseText,
		r.ResponseAuthor,
	}
}
