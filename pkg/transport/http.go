package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	ep "github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	trans "github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"

	"github.com/ck4445/ECKOBits/pkg/endpoint"
	"github.com/ck4445/ECKOBits/pkg/service"
)

// NewHTTPHandler returns an HTTP handler that makes a set of endpoints
// available on predefined paths.
func NewHTTPHandler(endpoints endpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(trans.NewLogErrorHandler(logger)),
	}

	m := mux.NewRouter()
	m.Methods("GET").Path("/v1/healthcheck").Handler(httptransport.NewServer(
		endpoints.HealthCheckEndpoint,
		decodeHTTPHealthCheckRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path("/v1/balance/{user}").Handler(httptransport.NewServer(
		endpoints.BalanceEndpoint,
		decodeHTTPBalanceRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path("/v1/notifications/{user}").Handler(httptransport.NewServer(
		endpoints.NotificationsEndpoint,
		decodeHTTPNotificationsRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("DELETE").Path("/v1/notifications/{user}").Handler(httptransport.NewServer(
		endpoints.ClearNotificationsEndpoint,
		decodeHTTPClearNotificationsRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path("/v1/preferences/{user}").Handler(httptransport.NewServer(
		endpoints.PreferencesEndpoint,
		decodeHTTPPreferencesRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("PUT").Path("/v1/preferences/{user}").Handler(httptransport.NewServer(
		endpoints.SetPreferencesEndpoint,
		decodeHTTPSetPreferencesRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path("/v1/leaderboard").Handler(httptransport.NewServer(
		endpoints.LeaderboardEndpoint,
		decodeHTTPLeaderboardRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path("/v1/subscriptions/{payer}").Handler(httptransport.NewServer(
		endpoints.SubscriptionsEndpoint,
		decodeHTTPSubscriptionsRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path("/v1/companies/{name}").Handler(httptransport.NewServer(
		endpoints.CompanyEndpoint,
		decodeHTTPCompanyRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	return m
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.WriteHeader(err2code(err))
	_ = json.NewEncoder(w).Encode(errorWrapper{Success: false, Error: err.Error()})
}

func err2code(err error) int {
	switch err {
	case service.ErrCompanyNotFound:
		return http.StatusNotFound
	case service.ErrRequiredArgumentMissing, service.ErrSelfTransfer, service.ErrInvalidAmount:
		return http.StatusBadRequest
	case service.ErrInsufficientFunds, service.ErrUnknownCycle, service.ErrNoSubscription:
		return http.StatusBadRequest
	case service.ErrCompanyExists, service.ErrNotCompanyMember, service.ErrAlreadyCompanyMember:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorWrapper struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// decodeHTTPHealthCheckRequest is a transport/http.DecodeRequestFunc that
// decodes a HealthCheck request. Primarily useful in a server.
func decodeHTTPHealthCheckRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return endpoint.HealthCheckRequest{}, nil
}

// decodeHTTPBalanceRequest pulls the account key out of the request path.
func decodeHTTPBalanceRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.BalanceRequest{User: mux.Vars(r)["user"]}, nil
}

// decodeHTTPNotificationsRequest pulls the account key out of the request path.
func decodeHTTPNotificationsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.NotificationsRequest{User: mux.Vars(r)["user"]}, nil
}

// decodeHTTPClearNotificationsRequest pulls the account key out of the request path.
func decodeHTTPClearNotificationsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.ClearNotificationsRequest{User: mux.Vars(r)["user"]}, nil
}

// decodeHTTPPreferencesRequest pulls the account key out of the request path.
func decodeHTTPPreferencesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.PreferencesRequest{User: mux.Vars(r)["user"]}, nil
}

// decodeHTTPSetPreferencesRequest decodes a JSON-encoded preference update
// from the HTTP request body.
func decodeHTTPSetPreferencesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req endpoint.SetPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	req.User = mux.Vars(r)["user"]
	return req, nil
}

// decodeHTTPLeaderboardRequest reads the paging parameters off the query
// string, defaulting to the top ten.
func decodeHTTPLeaderboardRequest(_ context.Context, r *http.Request) (interface{}, error) {
	req := endpoint.LeaderboardRequest{Limit: 10, Offset: 0}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		req.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		req.Offset = offset
	}
	return req, nil
}

// decodeHTTPSubscriptionsRequest pulls the payer out of the request path.
func decodeHTTPSubscriptionsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.SubscriptionsRequest{Payer: mux.Vars(r)["payer"]}, nil
}

// decodeHTTPCompanyRequest pulls the company name out of the request path.
func decodeHTTPCompanyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.CompanyRequest{Name: mux.Vars(r)["name"]}, nil
}

// encodeHTTPGenericResponse is a transport/http.EncodeResponseFunc that encodes
// the response as JSON to the response writer. Primarily useful in a server.
func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(ep.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}
