package external

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"fairweather/internal/types"
)

const DefaultRoutingBaseURL = "https://router.project-osrm.org"

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
	Waypoints []struct {
		// [lon, lat]
		Location [2]float64 `json:"location"`
	} `json:"waypoints"`
}

// OSRMClient queries an OSRM routing server.
type OSRMClient struct {
	base    *BaseClient
	baseURL string
}

// NewOSRMClient creates a routing client.
func NewOSRMClient(httpClient *http.Client, baseURL string, opts ...BaseClientOption) *OSRMClient {
	if baseURL == "" {
		baseURL = DefaultRoutingBaseURL
	}
	return &OSRMClient{
		base:    NewBaseClient(httpClient, "osrm", types.ErrCodeUpstreamRouting, DefaultRetryPolicy(), opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Route returns the driving route from origin to dest. OSRM answers an
// unroutable pair with a 400 and code "NoRoute"; that and an empty route list
// are reported as not_found_route.
func (c *OSRMClient) Route(ctx context.Context, origin, dest types.Location) (*types.Route, error) {
	u := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		c.baseURL, origin.Lon, origin.Lat, dest.Lon, dest.Lat)

	var out osrmResponse
	err := c.base.GetJSON(ctx, u, &out)
	if err != nil {
		if isClientError(err) {
			return nil, types.NewAppError(types.ErrCodeNotFoundRoute, "no route between the given points", err)
		}
		return nil, err
	}
	if out.Code != "Ok" || len(out.Routes) == 0 || len(out.Waypoints) < 2 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundRoute, "no route between the given points", nil,
			map[string]any{"osrm_code": out.Code})
	}
	snapped := out.Waypoints[len(out.Waypoints)-1].Location
	return &types.Route{
		DistanceMeters:  out.Routes[0].Distance,
		DurationSeconds: out.Routes[0].Duration,
		Destination:     types.Location{Lat: snapped[1], Lon: snapped[0]},
	}, nil
}

// isClientError reports whether err carries a 4xx upstream status.
func isClientError(err error) bool {
	appErr, ok := types.AsAppError(err)
	if !ok || appErr.Details == nil {
		return false
	}
	status, _ := appErr.Details["status"].(int)
	return status >= 400 && status < 500
}
