package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	routing "cloud.google.com/go/maps/routing/apiv2"
	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/grpc/metadata"
)

// CrowFliesDriveTimeMultiplier estimates drive minutes per straight-line mile
// when no routing API result is available.
const CrowFliesDriveTimeMultiplier = 2.0

/*──────────── reusable, thread-safe Routes client ────────────*/

var (
	routesClientOnce sync.Once
	routesClient     *routing.RoutesClient
	routesClientErr  error
)

func getRoutesClient(ctx context.Context, apiKey string) (*routing.RoutesClient, error) {
	routesClientOnce.Do(func() {
		Logger.Info("[GMapsClient] Initializing Google Maps Routes client...")
		routesClient, routesClientErr = routing.NewRoutesRESTClient(
			ctx,
			option.WithAPIKey(apiKey),
			option.WithEndpoint("https://routes.googleapis.com"),
		)
		if routesClientErr != nil {
			Logger.WithError(routesClientErr).Error("[GMapsClient] Failed to initialize Google Maps Routes client")
		}
	})
	return routesClient, routesClientErr
}

/*
   ComputeTravelEstimate returns (distanceMiles, durationMinutes, error) for a
   worker travelling to a venue.

   If the GMaps API key is empty, or if the GMaps request fails, we fall back
   to a simple Haversine distance, then estimate drive time as
   dist * CrowFliesDriveTimeMultiplier.
*/
func ComputeTravelEstimate(
	lat1, lng1, lat2, lng2 float64,
	apiKey string,
) (float64, int, error) {
	originStr := fmt.Sprintf("%.6f,%.6f", lat1, lng1)
	destStr := fmt.Sprintf("%.6f,%.6f", lat2, lng2)
	loggerWithFields := Logger.WithField("origin", originStr).WithField("destination", destStr)

	if apiKey == "" {
		dist := DistanceMiles(lat1, lng1, lat2, lng2)
		return dist, int(dist*CrowFliesDriveTimeMultiplier + 0.5), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cli, err := getRoutesClient(ctx, apiKey)
	if err != nil {
		loggerWithFields.WithError(err).Error("[GMapsClient] Failed to get Routes client. Falling back to Haversine.")
		dist := DistanceMiles(lat1, lng1, lat2, lng2)
		return dist, int(dist*CrowFliesDriveTimeMultiplier + 0.5), nil
	}

	req := &routingpb.ComputeRoutesRequest{
		Origin: &routingpb.Waypoint{
			LocationType: &routingpb.Waypoint_Location{
				Location: &routingpb.Location{
					LatLng: &latlng.LatLng{Latitude: lat1, Longitude: lng1},
				},
			},
		},
		Destination: &routingpb.Waypoint{
			LocationType: &routingpb.Waypoint_Location{
				Location: &routingpb.Location{
					LatLng: &latlng.LatLng{Latitude: lat2, Longitude: lng2},
				},
			},
		},
		TravelMode:        routingpb.RouteTravelMode_DRIVE,
		RoutingPreference: routingpb.RoutingPreference_TRAFFIC_UNAWARE,
	}

	ctxWithFieldMask := metadata.AppendToOutgoingContext(
		ctx,
		"X-Goog-FieldMask",
		"routes.duration,routes.distanceMeters",
	)

	resp, err := cli.ComputeRoutes(ctxWithFieldMask, req)
	if err != nil {
		loggerWithFields.WithError(err).Warn("[GMapsClient] ComputeRoutes call failed. Falling back to Haversine.")
		dist := DistanceMiles(lat1, lng1, lat2, lng2)
		return dist, int(dist*CrowFliesDriveTimeMultiplier + 0.5), nil
	}

	if len(resp.Routes) == 0 {
		loggerWithFields.Warn("[GMapsClient] Google Maps API returned no routes. Falling back to Haversine.")
		dist := DistanceMiles(lat1, lng1, lat2, lng2)
		return dist, int(dist*CrowFliesDriveTimeMultiplier + 0.5), nil
	}

	route := resp.Routes[0]

	var mins int
	if route.Duration != nil {
		mins = int(route.Duration.AsDuration().Minutes() + 0.5)
	} else {
		distMilesFromAPI := round1(float64(route.GetDistanceMeters()) / metersPerMile)
		if distMilesFromAPI > 0 {
			mins = int(distMilesFromAPI*CrowFliesDriveTimeMultiplier + 0.5)
		} else {
			dist := DistanceMiles(lat1, lng1, lat2, lng2)
			mins = int(dist*CrowFliesDriveTimeMultiplier + 0.5)
		}
	}

	var distMiles float64
	if m := route.GetDistanceMeters(); m > 0 {
		distMiles = round1(float64(m) / metersPerMile)
	} else {
		loggerWithFields.Warn("[GMapsClient] Response missing distanceMeters. Using Haversine for distance.")
		distMiles = DistanceMiles(lat1, lng1, lat2, lng2)
	}

	return distMiles, mins, nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
