package authkit

import (
	"net/http"
	"net/url"
	"strings"
)

// csrfHeader is the request header checked for the submitted page token when
// the form field is absent.
const csrfHeader = "X-Csrf-Token"

// csrfField is the form field carrying the submitted page token.
const csrfField = "csrf_token"

// maxMultipartMemory bounds the in-memory portion of a multipart body.
const maxMultipartMemory = 10 << 20

// Request is the engine's abstract view of an inbound HTTP request. Framework
// shims construct it; FromHTTP covers net/http.
type Request struct {
	Method  string
	URL     *url.URL
	Header  http.Header
	Cookies map[string]string
	Form    url.Values
}

// Cookie returns the named cookie value, or "" when absent.
func (r *Request) Cookie(name string) string {
	return r.Cookies[name]
}

// Query returns the named query parameter.
func (r *Request) Query(name string) string {
	return r.URL.Query().Get(name)
}

// FormValue returns the named form field, falling back to the query string.
func (r *Request) FormValue(name string) string {
	if v := r.Form.Get(name); v != "" {
		return v
	}
	return r.Query(name)
}

// csrfToken extracts the submitted page token from the form or the header.
func (r *Request) csrfToken() string {
	if v := r.Form.Get(csrfField); v != "" {
		return v
	}
	return r.Header.Get(csrfHeader)
}

// FromHTTP translates a net/http request into the abstract form. The body is
// parsed as a form when the content type says so.
func FromHTTP(r *http.Request) (*Request, error) {
	cookies := make(map[string]string, len(r.Cookies()))
	for _, c := range r.Cookies() {
		if _, ok := cookies[c.Name]; !ok {
			cookies[c.Name] = c.Value
		}
	}

	form := url.Values{}
	ct := r.Header.Get("Content-Type")
	if r.Method == http.MethodPost {
		switch {
		case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
			if err := r.ParseForm(); err != nil {
				return nil, err
			}
			form = r.PostForm
		case strings.HasPrefix(ct, "multipart/form-data"):
			// ParseForm ignores multipart bodies; ParseMultipartForm merges
			// the field values into PostForm.
			if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
				return nil, err
			}
			form = r.PostForm
		}
	}

	return &Request{
		Method:  r.Method,
		URL:     r.URL,
		Header:  r.Header,
		Cookies: cookies,
		Form:    form,
	}, nil
}
