package geometry

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// The client used for fetching remote meshes.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// A resource is a readable mesh source: a local file or an http/https
// response body.
type Resource struct {
	io.ReadCloser
	location *url.URL
}

// Get the location of the resource as passed to OpenResource.
func (r *Resource) Path() string {
	return r.location.String()
}

// Get the last path element of the resource location.
func (r *Resource) Name() string {
	return filepath.Base(r.location.Path)
}

// Returns true if the resource is fetched over the network.
func (r *Resource) IsRemote() bool {
	return r.location.Scheme != ""
}

// Open a mesh resource. Locations without a scheme are local files. The
// caller must close the returned resource.
func OpenResource(location string) (*Resource, error) {
	u, err := url.Parse(strings.ReplaceAll(location, `\`, `/`))
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "":
		body, err = os.Open(filepath.Clean(u.Path))
	case "http", "https":
		body, err = fetch(u)
	default:
		err = fmt.Errorf("resource: unsupported scheme '%s'", u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	return &Resource{ReadCloser: body, location: u}, nil
}

func fetch(u *url.URL) (io.ReadCloser, error) {
	resp, err := httpClient.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", u, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", u, resp.StatusCode)
	}
	return resp.Body, nil
}

// Wrap a reader as a resource. The name is used in error messages and as
// the fallback object name.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	u, err := url.Parse(name)
	if err != nil {
		u = &url.URL{Path: name}
	}
	return &Resource{ReadCloser: io.NopCloser(source), location: u}
}
