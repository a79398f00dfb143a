package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork means no response was received (refused, DNS, timeout).
	KindNetwork Kind = iota + 1
	// KindAuthRejected means a protected endpoint rejected the session.
	KindAuthRejected
	// KindEmpty means the server answered with an error status that this API
	// uses to say "nothing here yet". Read functions absorb it.
	KindEmpty
	// KindValidation means the server rejected the payload (duplicate email,
	// bad input) or client-side validation failed before dispatch.
	KindValidation
	// KindServer covers every other non-2xx response.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthRejected:
		return "auth_rejected"
	case KindEmpty:
		return "empty"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the failure returned by every Client call.
type Error struct {
	Kind   Kind
	Method string
	Path   string
	// Status is zero for KindNetwork and client-side validation.
	Status int
	// Message is the server-supplied explanation, when one was present.
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("api %s %s: execute request: %v", e.Method, e.Path, e.Err)
	case e.Err != nil && e.Message == "":
		return fmt.Sprintf("api %s %s: %v", e.Method, e.Path, e.Err)
	case e.Status == 0:
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	case e.Message != "":
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// IsNetwork reports whether err means the server could not be reached.
func IsNetwork(err error) bool { return IsKind(err, KindNetwork) }

// IsAuthRejected reports whether err is a rejected session.
func IsAuthRejected(err error) bool { return IsKind(err, KindAuthRejected) }

// IsEmpty reports whether err is the "nothing here yet" server error.
func IsEmpty(err error) bool { return IsKind(err, KindEmpty) }

// IsValidation reports whether err is a rejected payload.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// Message returns text suitable for showing to the user. fallback is used
// when neither the server nor the kind offers something better.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		if fallback != "" {
			return fallback
		}
		return err.Error()
	}
	switch apiErr.Kind {
	case KindNetwork:
		return "Unable to connect to server. Please check your connection."
	case KindAuthRejected:
		return "Your session has expired. Please log in again."
	}
	if msg := strings.TrimSpace(apiErr.Message); msg != "" {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	if apiErr.Status >= http.StatusInternalServerError {
		return "The service is temporarily unavailable. Please try again later."
	}
	return "Request failed."
}

// Family groups endpoints by their first path segment after the version.
type Family string

const (
	FamilyAuth          Family = "auth"
	FamilyUsers         Family = "users"
	FamilyProducts      Family = "products"
	FamilyCategories    Family = "categories"
	FamilySubCategories Family = "subcategories"
	FamilyBrands        Family = "brands"
	FamilyCart          Family = "cart"
	FamilyWishlist      Family = "wishlist"
	FamilyAddresses     Family = "addresses"
	FamilyOrders        Family = "orders"
	FamilyReviews       Family = "reviews"
)

// emptyStatuses lists, per family, the statuses a collection GET returns when
// the collection does not exist yet (no cart created, no orders placed). This
// works around an upstream defect; drop entries once the API answers with an
// empty collection instead.
var emptyStatuses = map[Family][]int{
	FamilyCart:     {http.StatusInternalServerError},
	FamilyWishlist: {http.StatusInternalServerError},
	FamilyOrders:   {http.StatusInternalServerError, http.StatusNotFound},
	FamilyReviews:  {http.StatusInternalServerError},
	FamilyProducts: {http.StatusInternalServerError},
}

// publicFamilies never carry a session, so their 401 means bad credentials.
var publicFamilies = map[Family]bool{
	FamilyAuth: true,
}

// route is the parsed shape of a request path.
type route struct {
	family     Family
	collection bool
}

func parseRoute(path string) route {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) > 0 && isVersion(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return route{}
	}
	return route{family: Family(segments[0]), collection: len(segments) == 1}
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// classify maps a non-2xx response to a Kind.
func classify(method, path string, status int) Kind {
	r := parseRoute(path)
	if status == http.StatusUnauthorized {
		if publicFamilies[r.family] {
			return KindValidation
		}
		return KindAuthRejected
	}
	if method == http.MethodGet && r.collection {
		for _, s := range emptyStatuses[r.family] {
			if s == status {
				return KindEmpty
			}
		}
	}
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return KindValidation
	}
	return KindServer
}
