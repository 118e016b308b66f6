package app

import (
	"fmt"
	"strings"

	"sirius_reviews/internal/domain"
)

/********** tiny helpers **********/

// lookupAny: nested lookup with dot paths on maps. ok is false when any
// segment is missing or is not an object.
func lookupAny(m map[string]any, path string) (any, bool) {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// getOrDefault returns the value at path, or def when the path is absent.
func getOrDefault(m map[string]any, path string, def any) any {
	if v, ok := lookupAny(m, path); ok {
		return v
	}
	return def
}

// MissingFieldError reports a required path absent from a review.
type MissingFieldError struct {
	Index int
	Path  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("review %d: required field %q is missing", e.Index, e.Path)
}

func (e *MissingFieldError) Unwrap() error { return domain.ErrMapping }

// NotObjectError reports a path that must hold an object but holds something else.
type NotObjectError struct {
	Index int
	Path  string
}

func (e *NotObjectError) Error() string {
	return fmt.Sprintf("review %d: field %q is not an object", e.Index, e.Path)
}

func (e *NotObjectError) Unwrap() error { return domain.ErrMapping }

// fieldReader reads required fields and remembers the first miss.
type fieldReader struct {
	raw   domain.RawReview
	index int
	err   error
}

func (r *fieldReader) required(path string) any {
	if r.err != nil {
		return nil
	}
	v, ok := lookupAny(r.raw, path)
	if !ok {
		r.err = &MissingFieldError{Index: r.index, Path: path}
		return nil
	}
	return v
}

/********** review mapper **********/

// MapReview flattens one raw review. Required fields may hold null but must
// be present; polarity, tags and the response block default to null. A
// response, or its user, that is present but not an object is an error.
func MapReview(index int, raw domain.RawReview) (domain.FlatRecord, error) {
	r := &fieldReader{raw: raw, index: index}

	rec := domain.FlatRecord{
		AppName:            r.required("app_var.name"),
		Platform:           r.required("app_var.platform"),
		DeviceManufacturer: r.required("content.device_manufacturer"),
		DeviceModel:        r.required("content.device_model"),
		ReviewPolarity:     getOrDefault(raw, "content.polarity", nil),
		ReviewTags:         getOrDefault(raw, "content.tags", nil),
		ReviewScore:        r.required("content.score"),
		ReviewText:         r.required("content.text"),
		ReviewAuthor:       r.required("user_name"),
		ReviewTime:         r.required("content.review_time"),
	}
	if r.err != nil {
		return domain.FlatRecord{}, r.err
	}

	// absent and null responses are the same case
	resp, _ := lookupAny(raw, "response")
	if resp == nil {
		return rec, nil
	}
	m, ok := resp.(map[string]any)
	if !ok {
		return domain.FlatRecord{}, &NotObjectError{Index: index, Path: "response"}
	}
	// user may be absent, but when present it must be an object
	if user, ok := m["user"]; ok {
		if _, isObj := user.(map[string]any); !isObj {
			return domain.FlatRecord{}, &NotObjectError{Index: index, Path: "response.user"}
		}
	}
	rec.ResponseTime = getOrDefault(m, "end_time", nil)
	rec.ResponseText = getOrDefault(m, "text", nil)
	rec.ResponseAuthor = getOrDefault(m, "user.email", nil)
	return rec, nil
}

// MapReviews maps every review in order. The first failure aborts the batch.
func MapReviews(in []domain.RawReview) ([]domain.FlatRecord, error) {
	out := make([]domain.FlatRecord, 0, len(in))
	for i, raw := range in {
		rec, err := MapReview(i, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
