package reference

import "fmt"

// Kind names a shared lookup entity.
type Kind string

const (
	KindAuthor   Kind = "author"
	KindArtist   Kind = "artist"
	KindCategory Kind = "category"
	KindTag      Kind = "tag"
)

// Label returns the capitalized singular used in sentinel names.
func (k Kind) Label() string {
	switch k {
	case KindAuthor:
		return "Author"
	case KindArtist:
		return "Artist"
	case KindCategory:
		return "Category"
	case KindTag:
		return "Tag"
	}
	return string(k)
}

// Table returns the table backing k.
func (k Kind) Table() (string, error) {
	switch k {
	case KindAuthor:
		return "authors", nil
	case KindArtist:
		return "artists", nil
	case KindCategory:
		return "categories", nil
	case KindTag:
		return "tags", nil
	}
	return "", fmt.Errorf("unknown reference kind %q", k)
}

// ResolutionError reports that a reference could neither be found nor created.
type ResolutionError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
