package authkit

import (
	"encoding/json"
	"net/http"
)

// Response is the engine's abstract outbound response. Framework shims
// serialize it; WriteHTTP covers net/http.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
}

// SetCookie appends a cookie to the response.
func (r *Response) SetCookie(c *http.Cookie) {
	r.Cookies = append(r.Cookies, c)
}

// Redirect returns the Location header, or "" for non-redirect responses.
func (r *Response) Redirect() string {
	return r.Header.Get("Location")
}

func newResponse(status int) *Response {
	return &Response{Status: status, Header: http.Header{}}
}

func redirectResponse(location string) *Response {
	resp := newResponse(http.StatusFound)
	resp.Header.Set("Location", location)
	return resp
}

func jsonResponse(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		resp := newResponse(http.StatusInternalServerError)
		resp.Header.Set("Content-Type", "application/json")
		resp.Body = []byte(`{"error":"Internal"}`)
		return resp
	}

	resp := newResponse(status)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body = body
	return resp
}

// WriteHTTP serializes the response onto a net/http ResponseWriter.
func WriteHTTP(w http.ResponseWriter, resp *Response) {
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	for _, c := range resp.Cookies {
		http.SetCookie(w, c)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
