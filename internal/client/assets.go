package client

import (
	"net/url"
	"strings"
)

// AssetURL resolves a stored document path against the static asset root
// (<asset root>/uploads/<path>). Absolute http(s) URLs are returned unchanged.
func (c *Client) AssetURL(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "#" {
		return "", ErrNoURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}

	root := c.assetURL
	if root == "" {
		root = c.baseURL
	}
	resolved, err := url.JoinPath(root, "uploads", strings.TrimLeft(path, "/"))
	if err != nil {
		return "", errorf("invalid asset path %q: %v", path, err)
	}
	return resolved, nil
}
