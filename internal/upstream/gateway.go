// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetinsights/internal/cache"
	"github.com/tomtom215/fleetinsights/internal/normalize"
)

// TripCacheName labels the trip response cache's metrics.
const TripCacheName = "trips"

// Gateway maps the provider's endpoints onto a Fetcher. Trip history goes
// through a shared response cache because the provider rate-limits
// concurrent trip requests.
type Gateway struct {
	fetcher Fetcher
	trips   *cache.Cache[Response]
}

// NewGateway creates a Gateway. trips may be nil to disable trip caching.
func NewGateway(fetcher Fetcher, trips *cache.Cache[Response]) *Gateway {
	return &Gateway{fetcher: fetcher, trips: trips}
}

// Groups fetches the vehicle group list.
func (g *Gateway) Groups(ctx context.Context) (Response, error) {
	return g.fetcher.Get(ctx, "/groups", nil)
}

// VehiclesByGroup fetches the raw vehicles of one group.
func (g *Gateway) VehiclesByGroup(ctx context.Context, group string) (Response, error) {
	return g.fetcher.Get(ctx, "/vehicles/group/"+url.PathEscape(group), nil)
}

// Vehicle fetches one raw vehicle.
func (g *Gateway) Vehicle(ctx context.Context, code string) (Response, error) {
	return g.fetcher.Get(ctx, "/vehicle/"+url.PathEscape(code), nil)
}

// History fetches position history for a comma separated list of codes.
func (g *Gateway) History(ctx context.Context, codes, from, to string) (Response, error) {
	return g.fetcher.Get(ctx, "/vehicles/history/"+url.PathEscape(codes), url.Values{
		"from": {from},
		"to":   {to},
	})
}

// Trips fetches one vehicle's trips in [from, to]. Only 200 responses are
// cached. cached reports whether the response came from the cache.
func (g *Gateway) Trips(ctx context.Context, code, from, to string) (resp Response, cached bool, err error) {
	fetch := func(ctx context.Context) (Response, bool, error) {
		r, err := g.fetcher.Get(ctx, "/vehicle/"+url.PathEscape(code)+"/trips", url.Values{
			"from": {from},
			"to":   {to},
		})
		return r, err == nil && r.Status == http.StatusOK, err
	}
	if g.trips == nil {
		resp, _, err = fetch(ctx)
		return resp, false, err
	}
	return g.trips.Fetch(ctx, TripCacheKey(code, from, to), fetch)
}

// TripCacheKey builds the trip cache key.
func TripCacheKey(code, from, to string) string {
	return code + "|" + from + "|" + to
}

// GroupRecords fetches and decodes the group list.
func (g *Gateway) GroupRecords(ctx context.Context) ([]normalize.Record, error) {
	resp, err := g.Groups(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeList("/groups", resp)
}

// VehicleRecords fetches and decodes one group's vehicles.
func (g *Gateway) VehicleRecords(ctx context.Context, group string) ([]normalize.Record, error) {
	resp, err := g.VehiclesByGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	return DecodeList("/vehicles/group/"+group, resp)
}

// VehicleRecord fetches and decodes one vehicle.
func (g *Gateway) VehicleRecord(ctx context.Context, code string) (normalize.Record, error) {
	resp, err := g.Vehicle(ctx, code)
	if err != nil {
		return nil, err
	}
	return DecodeObject("/vehicle/"+code, resp)
}

// TripRecords fetches and decodes one vehicle's trips.
func (g *Gateway) TripRecords(ctx context.Context, code, from, to string) ([]normalize.Record, error) {
	resp, _, err := g.Trips(ctx, code, from, to)
	if err != nil {
		return nil, err
	}
	return DecodeList("/vehicle/"+code+"/trips", resp)
}

// DecodeList decodes a JSON array of objects. Non-2xx responses become
// *UpstreamError and anything other than an array *MalformedResponseError.
func DecodeList(path string, resp Response) ([]normalize.Record, error) {
	if !resp.OK() {
		return nil, &UpstreamError{Path: path, Status: resp.Status, Body: resp.Body}
	}
	var out []normalize.Record
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &MalformedResponseError{Path: path, Err: err}
	}
	return out, nil
}

// DecodeObject decodes a single JSON object.
func DecodeObject(path string, resp Response) (normalize.Record, error) {
	if !resp.OK() {
		return nil, &UpstreamError{Path: path, Status: resp.Status, Body: resp.Body}
	}
	var out normalize.Record
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &MalformedResponseError{Path: path, Err: err}
	}
	return out, nil
}
