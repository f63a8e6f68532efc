package codegen

import "strings"

// jsDelivr serves GitHub and npm content for the gh:// and npm:// schemes.
const jsDelivrBase = "https://cdn.jsdelivr.net/"

// importURL translates an import URI into the URL the runtime loads.
// http and https URIs pass through unchanged; gh:// and npm:// map onto
// the jsDelivr CDN; any other scheme is a hard error.
func importURL(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return uri, nil
	case strings.HasPrefix(uri, "gh://"):
		return jsDelivrBase + "gh/" + strings.TrimPrefix(uri, "gh://"), nil
	case strings.HasPrefix(uri, "npm://"):
		return jsDelivrBase + "npm/" + strings.TrimPrefix(uri, "npm://"), nil
	default:
		return "", newError(ErrUnknownProtocol,
			"unknown protocol in import URI %q", uri)
	}
}
