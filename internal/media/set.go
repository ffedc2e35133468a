package media

import "errors"

// Set bundles the three media lists of a project.
type Set struct {
	Images    []string `json:"images"`
	Videos    []string `json:"videos"`
	Documents []string `json:"documents"`
}

// NormalizeSet normalizes all three kinds leniently.
func NormalizeSet(images, videos, documents any) Set {
	return Set{
		Images:    Normalize(KindImages, images),
		Videos:    Normalize(KindVideos, videos),
		Documents: Normalize(KindDocuments, documents),
	}
}

// NormalizeSetStrict normalizes all three kinds and joins the per-kind validation errors.
// The returned Set always holds the accepted entries, even when err is non-nil.
func NormalizeSetStrict(images, videos, documents any) (Set, error) {
	var errs []error

	imageList, err := NormalizeStrict(KindImages, images)
	if err != nil {
		errs = append(errs, err)
	}
	videoList, err := NormalizeStrict(KindVideos, videos)
	if err != nil {
		errs = append(errs, err)
	}
	documentList, err := NormalizeStrict(KindDocuments, documents)
	if err != nil {
		errs = append(errs, err)
	}

	return Set{Images: imageList, Videos: videoList, Documents: documentList}, errors.Join(errs...)
}

// ValidationErrors unpacks the per-kind errors produced by NormalizeSetStrict.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	var out []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			out = append(out, ValidationErrors(inner)...)
		}
		return out
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		out = append(out, validationErr)
	}
	return out
}
